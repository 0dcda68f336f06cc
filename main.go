package main

import (
	"context"
	"fmt"
	"os"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/ftag"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"go-stepgraph/config"
	"go-stepgraph/debug"
	"go-stepgraph/midi"
	"go-stepgraph/samples"
	"go-stepgraph/sequencer"
	"go-stepgraph/theme"
	"go-stepgraph/tui"
)

type flags struct {
	config  string
	port    string
	input   string
	tempo   int
	project string
	load    string
	log     bool
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:          "go-stepgraph",
		Short:        "Step sequencer with a live pattern graph",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(f)
		},
	}
	cmd.PersistentFlags().StringVar(&f.config, "config", "", "config file (default ~/.config/go-stepgraph/config.yaml)")
	cmd.PersistentFlags().BoolVar(&f.log, "log", false, "write a debug log")
	cmd.Flags().StringVar(&f.port, "port", "", "MIDI output port (substring match)")
	cmd.Flags().StringVar(&f.input, "input", "", "MIDI keyboard for step entry")
	cmd.Flags().IntVar(&f.tempo, "tempo", 0, "tempo in BPM")
	cmd.Flags().StringVar(&f.project, "project", "", "project name for saves")
	cmd.Flags().StringVar(&f.load, "load", "", "encoded session to start from")

	cmd.AddCommand(exportCmd(&f), portsCmd(), projectsCmd())
	return cmd
}

func loadConfig(f flags) (*config.Config, error) {
	if f.config != "" {
		return config.LoadFile(f.config)
	}
	return config.Load()
}

func run(f flags) error {
	cfg, err := loadConfig(f)
	if err != nil {
		return err
	}
	if f.port != "" {
		cfg.Output.PortName = f.port
	}
	if f.input != "" {
		cfg.Input.PortName = f.input
	}
	if f.tempo != 0 {
		cfg.Session.Tempo = f.tempo
	}
	if f.project != "" {
		cfg.UI.Project = f.project
	}
	if f.log || cfg.UI.Log {
		if err := debug.Enable(); err != nil {
			fmt.Fprintf(os.Stderr, "debug log: %v\n", err)
		}
		defer debug.Disable()
	}

	th := theme.New(nil)
	if cfg.UI.Palette != "" {
		palette, err := theme.LoadGPL(cfg.UI.Palette)
		if err != nil {
			return err
		}
		th = theme.New(palette)
	}

	clock := sequencer.NewWallClock()
	engine := midi.NewEngine(clock, uint8(cfg.Output.MelodyChannel-1), uint8(cfg.Output.PercussionChannel-1))

	var buffers sequencer.Buffers = &sequencer.KitBuffers{Kit: sequencer.GetKit(cfg.Session.Kit)}
	if cfg.UI.SampleDir != "" {
		buffers = samples.NewLibrary(cfg.UI.SampleDir, sequencer.GetKit(cfg.Session.Kit))
	}

	session := sequencer.NewSession(sequencer.Options{
		Clock:   clock,
		Engine:  engine,
		Buffers: buffers,
	})
	defer session.Close()

	var loadErr error
	session.Do(func() {
		cfg.Apply(session)
		if f.load != "" {
			loadErr = session.Load(f.load)
		}
	})
	if loadErr != nil {
		return loadErr
	}

	projects, err := sequencer.DefaultProjectStore()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	watcher := midi.NewPortWatcher(cfg.Output.PortName)
	go watcher.Run(ctx)

	var keyboard *midi.Keyboard
	if cfg.Input.PortName != "" {
		keyboard, err = midi.OpenKeyboard(cfg.Input.PortName)
		if err != nil {
			fmt.Fprintf(os.Stderr, "keyboard: %v\n", err)
		} else {
			defer keyboard.Close()
		}
	}

	m := tui.NewModel(tui.Options{
		Session:  session,
		Projects: projects,
		Project:  cfg.UI.Project,
		Theme:    th,
		Engine:   engine,
		Watcher:  watcher,
		Keyboard: keyboard,
	})
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	engine.Panic()
	return err
}

func exportCmd(root *flags) *cobra.Command {
	var (
		out     string
		project string
		passes  int
	)
	cmd := &cobra.Command{
		Use:   "export [encoded-session]",
		Short: "Render a session to a Standard MIDI File",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if root.log {
				if err := debug.Enable(); err == nil {
					defer debug.Disable()
				}
			}
			cfg, err := loadConfig(*root)
			if err != nil {
				return err
			}

			var payload *sequencer.Payload
			switch {
			case len(args) == 1:
				payload, err = sequencer.Decode(args[0])
			case project != "":
				var ps *sequencer.ProjectStore
				ps, err = sequencer.DefaultProjectStore()
				if err == nil {
					payload, err = ps.Load(project, "")
				}
			default:
				return fault.New("pass an encoded session or --project", ftag.With(ftag.InvalidArgument))
			}
			if err != nil {
				return err
			}

			file, err := os.Create(out)
			if err != nil {
				return err
			}
			defer file.Close()
			err = sequencer.ExportSMF(payload, file, sequencer.ExportOptions{
				Passes:            passes,
				MelodyChannel:     uint8(cfg.Output.MelodyChannel - 1),
				PercussionChannel: uint8(cfg.Output.PercussionChannel - 1),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "pattern.mid", "output file")
	cmd.Flags().StringVar(&project, "project", "", "export the latest save of a project")
	cmd.Flags().IntVar(&passes, "passes", 4, "melody passes to render")
	return cmd
}

func portsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List MIDI ports",
		RunE: func(cmd *cobra.Command, args []string) error {
			outs, err := midi.OutPorts()
			if err != nil {
				return err
			}
			ins, err := midi.InPorts()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, "outputs:")
			for i, n := range outs {
				fmt.Fprintf(w, "  %d: %s\n", i, n)
			}
			fmt.Fprintln(w, "inputs:")
			for i, n := range ins {
				fmt.Fprintf(w, "  %d: %s\n", i, n)
			}
			return nil
		},
	}
}

func projectsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "projects [name]",
		Short: "List projects, or the saves of one project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ps, err := sequencer.DefaultProjectStore()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(args) == 0 {
				names, err := ps.ListProjects()
				if err != nil {
					return err
				}
				for _, n := range names {
					fmt.Fprintln(w, n)
				}
				return nil
			}
			saves, err := ps.ListSaves(args[0])
			if err != nil {
				return err
			}
			for _, s := range saves {
				label := s.Name
				if label == "" {
					label = "-"
				}
				fmt.Fprintf(w, "%s  %s  %s\n", s.Timestamp.Format("2006-01-02 15:04:05"), label, s.Filename)
			}
			return nil
		},
	}
}
