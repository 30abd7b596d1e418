package main

import (
	"fmt"
	"io"
)

func runHelp(args []string, stdout io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stdout, HelpMainUsage)
		return ExitCodeSuccess
	}

	switch cmd := args[0]; cmd {
	case CmdNameRender:
		fmt.Fprintln(stdout, HelpRenderUsage)
	case CmdNameValidate:
		fmt.Fprintln(stdout, HelpValidateUsage)
	case CmdNameCheck:
		fmt.Fprintln(stdout, HelpCheckUsage)
	case CmdNameVersion:
		fmt.Fprintln(stdout, HelpVersionUsage)
	case CmdNameHelp:
		fmt.Fprintln(stdout, HelpHelpUsage)
	default:
		fmt.Fprintf(stdout, FmtErrorWithDetail, ErrMsgUnknownCommand, cmd)
		fmt.Fprintln(stdout, HelpMainUsage)
		return ExitCodeUsageError
	}

	return ExitCodeSuccess
}
