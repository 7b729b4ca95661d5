package main

import (
	"errors"
	"flag"
	"fmt"
	"syscall"

	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/roboclub/backend/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db      *sqlx.DB
	usrRepo user.Repository
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  addmentor -name NAME -email EMAIL - create a mentor account or promote an existing one")
	fmt.Println("  migrate COMMAND - run DB migrations. ex: migrate up")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addMentorCmd := flag.NewFlagSet("addmentor", flag.ExitOnError)
	addMentorName := addMentorCmd.String("name", "", "The mentor's full name.")
	addMentorEmail := addMentorCmd.String("email", "", "The mentor's email. The password will be prompted next.")

	switch args[1] {
	case "addmentor":
		if err := addMentorCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addMentorName == "" || *addMentorEmail == "" {
			addMentorCmd.Usage()
			return errHelp
		}
		fmt.Print("Enter password:")
		pwd, err := readPasswordFunc(syscall.Stdin)
		fmt.Println()
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			addMentorCmd.Usage()
			return errHelp
		}
		return cli.addMentor(*addMentorName, *addMentorEmail, string(pwd))
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	default:
		cli.printUsage()
		return errHelp
	}
}
