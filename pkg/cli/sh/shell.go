// Package sh is the interactive shell talking to remote pulse oximeters.
package sh

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/abiosoft/ishell"

	fx "github.com/robotalks/pulseox/pkg/framework"
	"github.com/robotalks/pulseox/pkg/remote"
	env "github.com/robotalks/pulseox/pkg/remote/env/connector"
	"github.com/robotalks/pulseox/pkg/remote/env/device"
	"github.com/robotalks/pulseox/pkg/remote/msgs"
)

// CommandTimeout bounds waiting for a reply.
const CommandTimeout = time.Second

// Shell is the ishell backed oximeter shell.
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

	commands = []*ishell.Cmd{
		&DiscoverCmd,
		&ConnectCmd,
		&DisconnectCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds registers commands, called from init of command packages.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
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

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// SessionFrom gets the current session, nil if not connected.
func SessionFrom(c *ishell.Context) *Session {
	return ShellFrom(c).Session
}

// MustBeConnected wraps command func requires a connection.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if SessionFrom(c) == nil {
			c.Err(fmt.Errorf("not connected"))
			return
		}
		fn(c)
	}
}

// Print writes msg as JSON or as a human readable line.
func (s *Shell) Print(c *ishell.Context, msg fx.Message) error {
	if s.OutputJSON {
		out, err := json.Marshal(msg)
		if err != nil {
			return err
		}
		c.Println(string(out))
		return nil
	}
	c.Println(FormatMessage(msg))
	return nil
}

// DoCommand sends a command to the connected device and prints the reply.
func DoCommand(c *ishell.Context, msg fx.Message) error {
	s := ShellFrom(c)
	if s.Session == nil {
		err := fmt.Errorf("not connected")
		c.Err(err)
		return err
	}
	reply, err := s.Session.Do(msg)
	if err == nil {
		err = s.Print(c, reply)
	}
	if err != nil {
		c.Err(err)
	}
	return err
}

// WithAutoConnect sets AutoConnect.
func (s *Shell) WithAutoConnect(en bool) *Shell {
	s.AutoConnect = en
	return s
}

// Discover lists registered oximeters.
func (s *Shell) Discover() ([]remote.DeviceInfo, error) {
	connector, err := s.Config.NewConnector()
	if err != nil {
		return nil, err
	}
	infoList, err := connector.Discover(context.TODO())
	if err != nil {
		return nil, err
	}
	devices := make([]remote.DeviceInfo, 0, len(infoList))
	for _, info := range infoList {
		if info.Ref.Type == device.DeviceType {
			devices = append(devices, info)
		}
	}
	return devices, nil
}

// Connect opens a session to the device and shows its status in the
// prompt.
func (s *Shell) Connect(ref remote.DeviceRef) error {
	connector, err := s.Config.NewConnector()
	if err != nil {
		return err
	}
	session, err := Open(connector, ref)
	if err != nil {
		return err
	}
	s.Disconnect()
	s.Session = session
	session.OnStatus(func(status msgs.Status) {
		s.Shell.SetPrompt(Prompt(ref, &status))
	})
	s.Shell.SetPrompt(Prompt(ref, nil))
	if _, err := session.Do(&msgs.StatusQuery{}); err != nil {
		log.Printf("query status of %s error: %v", ref.Name(), err)
	}
	return nil
}

// Disconnect closes current session.
func (s *Shell) Disconnect() {
	if s.Session != nil {
		s.Session.Close()
		s.Session = nil
		s.Shell.SetPrompt(unconnectedPrompt)
	}
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.AutoConnect && s.Config.Ref.IsValid() {
		if s.Interactive {
			s.Shell.Printf("Connecting %s ...\n", s.Config.Ref.Name())
		}
		if err := s.Connect(s.Config.Ref); err != nil {
			log.Fatalf("connect %q failed: %v", s.Config.Ref.Name(), err)
		}
	}

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// DiscoverCmd lists oximeters in the registry.
	DiscoverCmd = ishell.Cmd{
		Name:    "discover",
		Aliases: []string{"list", "l"},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			devices, err := s.Discover()
			if err != nil {
				c.Err(err)
				return
			}
			if s.OutputJSON {
				out, err := json.Marshal(devices)
				if err != nil {
					c.Err(err)
					return
				}
				c.Println(string(out))
				return
			}
			if len(devices) == 0 {
				c.Println("No oximeters found")
				return
			}
			for _, info := range devices {
				c.Println(FormatInfo(info))
			}
		},
	}

	// ConnectCmd connects an oximeter by ID, or the only one discovered.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "[ID]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			ref := remote.DeviceRef{Type: device.DeviceType}
			if len(c.Args) > 0 {
				ref.ID = c.Args[0]
			} else {
				devices, err := s.Discover()
				if err != nil {
					c.Err(err)
					return
				}
				switch {
				case len(devices) == 0:
					c.Err(fmt.Errorf("no oximeter discovered"))
					return
				case len(devices) > 1 && !s.Interactive:
					c.Err(fmt.Errorf("%d oximeters discovered, ID required", len(devices)))
					return
				case len(devices) > 1:
					items := make([]string, len(devices))
					for n, info := range devices {
						items[n] = FormatInfo(info)
					}
					n := c.MultiChoice(items, "Which one to connect?")
					if n < 0 {
						return
					}
					ref = devices[n].Ref
				default:
					ref = devices[0].Ref
				}
			}
			if err := s.Connect(ref); err != nil {
				c.Err(err)
			}
		},
	}

	// DisconnectCmd closes the session.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(env.NewConfig()).WithAutoConnect(true).Run(flag.Args()...)
}
