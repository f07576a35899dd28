// Package sh is the interactive shell of dshotctl. Command sets register
// themselves with AddCmds.
package sh

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"

	"github.com/abiosoft/ishell"

	fx "github.com/robotalks/dshot.go/pkg/framework"
	"github.com/robotalks/dshot.go/pkg/l1"
	env "github.com/robotalks/dshot.go/pkg/l1/env/connector"
)

// ErrNotConnected is reported by commands needing a session.
var ErrNotConnected = errors.New("not connected")

// Shell wraps an ishell.Shell with the session to a daemon.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoConnect bool

	Shell   *ishell.Shell
	Config  *env.Config
	Session *Session
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
)

var (
	evalOnly   bool
	outputJSON bool

	commands = []*ishell.Cmd{&DiscoverCmd, &ConnectCmd, &DisconnectCmd}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Run the command in arguments and exit.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print replies in JSON.")
}

// AddCmds registers commands, called from init of command packages.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a Shell with all registered commands.
func New(conf *env.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,
		Shell:       ishell.New(),
		Config:      conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets the Shell in a command.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeConnected wraps a command func which needs a session.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Session == nil {
			c.Err(ErrNotConnected)
			return
		}
		fn(c)
	}
}

// DoCommand sends a command in the session and prints the reply.
func DoCommand(c *ishell.Context, msg fx.Message) error {
	s := ShellFrom(c)
	if s.Session == nil {
		c.Err(ErrNotConnected)
		return ErrNotConnected
	}
	reply, err := s.Session.Do(context.Background(), msg)
	if err == nil {
		var out string
		if out, err = FormatReply(reply, s.OutputJSON); err == nil {
			c.Println(out)
			return nil
		}
	}
	c.Err(err)
	return err
}

// WithAutoConnect sets AutoConnect.
func (s *Shell) WithAutoConnect(en bool) *Shell {
	s.AutoConnect = en
	return s
}

// Discover lists daemons accepted by filter, nil for all.
func (s *Shell) Discover(filter func(l1.ControllerInfo) bool) ([]l1.ControllerInfo, error) {
	connector, err := s.Config.NewConnector()
	if err != nil {
		return nil, err
	}
	infoList, err := connector.Discover(context.Background())
	if err != nil || filter == nil {
		return infoList, err
	}
	var res []l1.ControllerInfo
	for _, info := range infoList {
		if filter(info) {
			res = append(res, info)
		}
	}
	return res, nil
}

// Connect opens a session replacing the current one.
func (s *Shell) Connect(ref l1.ControllerRef) error {
	connector, err := s.Config.NewConnector()
	if err != nil {
		return err
	}
	session, err := Open(context.Background(), connector, ref)
	if err != nil {
		return err
	}
	s.Disconnect()
	s.Session = session
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", ref.Name()))
	return nil
}

// Disconnect closes the current session.
func (s *Shell) Disconnect() {
	if s.Session != nil {
		s.Session.Close()
		s.Session = nil
		s.Shell.SetPrompt(unconnectedPrompt)
	}
}

// Run connects if configured, then runs args as one command, or the
// interactive shell without args.
func (s *Shell) Run(args ...string) {
	if ref := s.Config.Target(); s.AutoConnect && ref.IsValid() {
		if s.Interactive {
			s.Shell.Printf("Connecting %s ...\n", ref.Name())
		}
		if err := s.Connect(ref); err != nil {
			log.Fatalf("connect %s: %v", ref.Name(), err)
		}
	}
	switch {
	case len(args) > 0:
		err := s.Shell.Process(args...)
		s.Disconnect()
		if err != nil {
			log.Fatalln(err)
		}
	case s.Interactive:
		s.Shell.Run()
		s.Disconnect()
	default:
		log.Fatalln("command expected")
	}
}

// Main parses flags and runs the shell.
func Main() {
	flag.Parse()
	New(env.Default()).WithAutoConnect(true).Run(flag.Args()...)
}
