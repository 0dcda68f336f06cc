package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"go-stepgraph/midi"
	"go-stepgraph/sequencer"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	port := ""
	if len(os.Args) > 2 {
		port = os.Args[2]
	}

	switch os.Args[1] {
	case "list":
		listPorts()
	case "chord":
		playChord(port)
	case "drums":
		playDrums(port)
	case "poll":
		pollPorts(port)
	case "keys":
		echoKeys(port)
	default:
		usage()
	}
}

func usage() {
	fmt.Println("MIDI Test Scripts")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list          - List all MIDI ports")
	fmt.Println("  chord [port]  - Play a C major chord on the melody channel")
	fmt.Println("  drums [port]  - Play one pass of the GM kit on channel 10")
	fmt.Println("  poll [port]   - Watch an output port come and go")
	fmt.Println("  keys [port]   - Print notes from a keyboard")
}

func listPorts() {
	fmt.Println("(waiting up to 3 seconds...)")
	outs, err := midi.OutPorts()
	if err != nil {
		fmt.Printf("\n%v\n", err)
		fmt.Println("Fix: sudo killall coreaudiod midiserver")
		return
	}
	ins, _ := midi.InPorts()

	fmt.Println("=== MIDI Input Ports ===")
	for i, p := range ins {
		fmt.Printf("  %d: %s\n", i, p)
	}
	fmt.Println("\n=== MIDI Output Ports ===")
	for i, p := range outs {
		fmt.Printf("  %d: %s\n", i, p)
	}
}

func openEngine(port string) (*midi.Engine, *sequencer.WallClock, bool) {
	name, send, err := midi.OpenOut(port)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return nil, nil, false
	}
	fmt.Printf("Using %s\n", name)

	clock := sequencer.NewWallClock()
	engine := midi.NewEngine(clock, 0, 9)
	engine.SetOutput(name, send)
	return engine, clock, true
}

func playChord(port string) {
	engine, clock, ok := openEngine(port)
	if !ok {
		return
	}
	defer clock.Close()

	chord := []sequencer.Note{60, 64, 67}
	clock.Do(func() {
		at := clock.Now() + 0.05
		engine.TriggerNotes(chord, 1.0, at, sequencer.Velocity(len(chord)))
	})
	fmt.Println("C major, 1s")
	time.Sleep(1500 * time.Millisecond)
	engine.Panic()
}

func playDrums(port string) {
	engine, clock, ok := openEngine(port)
	if !ok {
		return
	}
	defer clock.Close()

	kit := &sequencer.KitBuffers{Kit: sequencer.GetKit(sequencer.DefaultKit)}
	const gap = 0.25
	clock.Do(func() {
		start := clock.Now() + 0.05
		for row := 0; row < sequencer.PercussionRows; row++ {
			ref, _ := kit.Buffer(row)
			engine.TriggerOneShot(ref, start+float64(row)*gap, 0, 1)
			fmt.Printf("  %d: %s (note %d)\n", row, ref.Name, ref.Note)
		}
	})
	time.Sleep(time.Duration(float64(sequencer.PercussionRows)*gap*float64(time.Second)) + 500*time.Millisecond)
}

func pollPorts(port string) {
	fmt.Println("Polling for output changes (Ctrl+C to stop)...")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	w := midi.NewPortWatcher(port)
	go w.Run(ctx)
	for ev := range w.Events() {
		switch ev.Type {
		case midi.PortConnected:
			fmt.Printf("+ %s\n", ev.Name)
		case midi.PortDisconnected:
			fmt.Printf("- %s\n", ev.Name)
		}
	}
}

func echoKeys(port string) {
	kb, err := midi.OpenKeyboard(port)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer kb.Close()
	fmt.Printf("Listening on %s (Ctrl+C to stop)...\n", kb.Name())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	for {
		select {
		case ev := <-kb.NoteEvents():
			fmt.Printf("ch%d %s vel=%d\n", ev.Channel+1, sequencer.Note(ev.Note), ev.Velocity)
		case <-sig:
			return
		}
	}
}
