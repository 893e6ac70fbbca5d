package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

func main() {
	list := flag.Bool("list", false, "List callable functions and exit")
	flag.Parse()

	if *list {
		if err := listFunctions(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "bridge-console needs a terminal; use -list for plain output")
		os.Exit(1)
	}

	if err := runConsole(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func listFunctions() error {
	msg := newConsoleModel().connect().(connectedMsg)
	if msg.err != nil {
		return msg.err
	}
	defer msg.cancel()

	for _, f := range msg.funcs {
		var params []string
		for _, p := range f.params {
			name := p.name
			if p.variadic {
				name = "..." + name
			}
			params = append(params, name+": "+p.typeName)
		}
		sig := f.name + "(" + strings.Join(params, ", ") + ")"
		if f.returnType != "" {
			sig += " -> " + f.returnType
		}
		fmt.Println(sig)
	}
	return nil
}
