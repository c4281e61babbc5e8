package main

import (
	"fmt"
	"os"
	"strings"

	cli "github.com/spf13/pflag"

	"thaili/internal/ipc"
)

func main() {
	socket := cli.StringP("socket", "s", ipc.DefaultSocketPath(), "Daemon control socket")
	cli.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: thaili-ctl [-s socket] toggle|on|off|status|hush\n")
		cli.PrintDefaults()
	}
	cli.Parse()

	cmd := ipc.CmdToggle
	if cli.NArg() > 0 {
		cmd = strings.ToLower(cli.Arg(0))
	}

	rep, err := ipc.Send(*socket, cmd)
	if err != nil {
		fmt.Fprintln(os.Stderr, "thaili-daemon:", err)
		os.Exit(1)
	}

	if len(rep.Status) > 0 {
		fmt.Println(string(rep.Status))
	}
}
