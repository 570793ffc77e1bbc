package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
)

const usage = `usage: operator COMMAND [FLAGS]

Commands:
  serve    serve a content directory over HTTP
  get      render a single route to standard output
  render   render a template from standard input

Run 'operator COMMAND -help' for the flags a command takes. Every flag can
also be set through the environment (OPERATOR_CONTENT_DIRECTORY, ...).
`

func main() {
	log.SetOutput(os.Stderr)

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch command, args := os.Args[1], os.Args[2:]; command {
	case "serve":
		err = serveCommand(args)
	case "get":
		err = getCommand(args)
	case "render":
		err = renderCommand(args)
	case "help", "-help", "--help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", command, usage)
		os.Exit(2)
	}

	if err != nil {
		fatal(err)
	}
}
