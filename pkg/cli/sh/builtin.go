package sh

import (
	"encoding/json"
	"errors"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/dshot.go/pkg/l1"
)

var errNoController = errors.New("no controller discovered")

var (
	// DiscoverCmd lists daemons on the registry.
	DiscoverCmd = ishell.Cmd{
		Name:    "discover",
		Aliases: []string{"list", "l"},
		Help:    "list daemons",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			infoList, err := s.Discover(nil)
			if err != nil {
				c.Err(err)
				return
			}
			if s.OutputJSON {
				if infoList == nil {
					infoList = []l1.ControllerInfo{}
				}
				out, err := json.Marshal(infoList)
				if err != nil {
					c.Err(err)
					return
				}
				c.Println(string(out))
				return
			}
			if len(infoList) == 0 {
				c.Println("No daemons found")
			}
			for _, info := range infoList {
				c.Println(FormatInfo(info))
			}
		},
	}

	// ConnectCmd connects a daemon, choosing from discovered ones if not
	// specified.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "[[TYPE/]ID]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			ref, err := s.pickRef(c.Args)
			if err == nil {
				err = s.Connect(ref)
			}
			if err != nil {
				c.Err(err)
			}
		},
	}

	// DisconnectCmd closes the session.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "close the connection",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}
)

func (s *Shell) pickRef(args []string) (l1.ControllerRef, error) {
	if len(args) > 0 {
		return l1.ParseRef(args[0], s.Config.Ref.Type)
	}
	var filter func(l1.ControllerInfo) bool
	if typ := s.Config.Ref.Type; typ != "" {
		filter = func(info l1.ControllerInfo) bool { return info.Ref.Type == typ }
	}
	infoList, err := s.Discover(filter)
	if err != nil {
		return l1.ControllerRef{}, err
	}
	switch {
	case len(infoList) == 0:
		return l1.ControllerRef{}, errNoController
	case len(infoList) == 1:
		return infoList[0].Ref, nil
	case !s.Interactive:
		return l1.ControllerRef{}, errors.New("multiple daemons discovered, specify one")
	}
	choices := make([]string, len(infoList))
	for n, info := range infoList {
		choices[n] = FormatInfo(info)
	}
	index := s.Shell.MultiChoice(choices, "Which one to connect?")
	if index < 0 {
		return l1.ControllerRef{}, errNoController
	}
	return infoList[index].Ref, nil
}
