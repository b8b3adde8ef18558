// main.go - 391OS entry point.
//
// Grounded on the teacher's main.go boot sequence (boilerPlate banner,
// flag-parsed mode selection, component wiring into one struct, then a
// blocking run loop) and on arctir-proctor's cmd.SetupCLI (a cobra command
// tree with one subcommand per distinct operation rather than a single
// monolithic main). Where the teacher wires a CPU/SoundChip/VideoChip onto
// a SystemBus, this wires a kernel.Kernel onto either the raw-terminal host
// (host.go) or the ebiten GUI frontend (gui.go).
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/intuitionamiga/kernel391/internal/kernel"
	"github.com/intuitionamiga/kernel391/internal/progs"
)

const quantum = 50 * time.Millisecond

// rtcTickInterval is the wall-clock period of the virtualized RTC's 1024 Hz
// reference counter, the same ceiling rtc.go's FreqMaxHz names.
const rtcTickInterval = time.Second / kernel.FreqMaxHz

// startRTCTicker spawns the PIT-substitute driving Kernel.RTCIRQ, grounded
// on the same ticker/stop/done pattern as Scheduler.Start. Without this,
// anything blocked in RTC.WaitForTick (every open "rtc" reader, including
// the counter program) never wakes: RTCIRQ is the only thing that advances
// the reference counter.
func startRTCTicker(k *kernel.Kernel) func() {
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(rtcTickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				k.RTCIRQ()
			}
		}
	}()
	return func() {
		close(stop)
		<-done
	}
}

func boilerPlate() {
	fmt.Println("391OS (c) 2026 - a small preemptive-multitasking kernel substrate")
	fmt.Println("three terminals, one shell per terminal, built-in and Lua programs")
}

var rootCmd = &cobra.Command{
	Use:   "kernel391",
	Short: "391OS: a process/scheduling substrate with three virtual terminals",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
		os.Exit(0)
	},
}

var guiFlag bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Boot the kernel and attach an interactive frontend",
	Run: func(cmd *cobra.Command, args []string) {
		boilerPlate()
		if err := runInteractive(guiFlag); err != nil {
			fmt.Fprintf(os.Stderr, "kernel391: %v\n", err)
			os.Exit(1)
		}
	},
}

var progsCmd = &cobra.Command{
	Use:   "progs",
	Short: "Boot the kernel, run one command to completion, and list its process table",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runAndList(args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "kernel391: %v\n", err)
			os.Exit(1)
		}
	},
}

func setupCLI() *cobra.Command {
	runCmd.Flags().BoolVar(&guiFlag, "gui", false, "use the ebiten windowed frontend instead of the raw terminal")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(progsCmd)
	return rootCmd
}

func newBootKernel() (*kernel.Kernel, error) {
	k := kernel.NewKernel("shell")
	if err := progs.Register(k); err != nil {
		return nil, fmt.Errorf("registering builtin programs: %w", err)
	}
	return k, nil
}

// runInteractive boots the kernel with a shell on every terminal and a live
// frontend, blocking until the frontend exits.
func runInteractive(gui bool) error {
	k, err := newBootKernel()
	if err != nil {
		return err
	}

	clicker, err := newTickClicker()
	if err == nil {
		clicker.Start()
		k.RTC.SetOnTick(clicker.Click)
		defer clicker.Close()
	} else {
		fmt.Fprintf(os.Stderr, "kernel391: audio disabled: %v\n", err)
	}

	k.Sched.Start(quantum)
	defer k.Sched.Stop()

	stopRTC := startRTCTicker(k)
	defer stopRTC()

	for t := 0; t < kernel.NumTerminals; t++ {
		term := t
		go func() {
			if _, err := k.Execute(kernel.NoPID, term, "shell"); err != nil {
				fmt.Fprintf(os.Stderr, "kernel391: terminal %d: %v\n", term, err)
			}
		}()
	}

	if gui {
		return runGUI(k)
	}
	return runHeadless(k)
}

func runGUI(k *kernel.Kernel) error {
	frontend := newGUIFrontend(k)
	ebitenRunGame(frontend)
	return nil
}

func runHeadless(k *kernel.Kernel) error {
	k.Terms.SetOutputHook(0, func(c byte) { fmt.Fprintf(os.Stdout, "%c", c) })

	host := newStdinHost(k)
	host.Start()
	defer host.Stop()

	fmt.Println("headless mode: terminal 0 only, Ctrl+C to quit")
	select {}
}

// runAndList executes a single command on terminal 0 to completion (as the
// process's own shell would), then prints the resulting process table via
// tablewriter — a non-interactive diagnostic entry point, grounded on
// arctir-proctor's "proctor process ls" table output.
func runAndList(command string) error {
	k, err := newBootKernel()
	if err != nil {
		return err
	}
	k.Sched.Start(quantum)
	defer k.Sched.Stop()

	stopRTC := startRTCTicker(k)
	defer stopRTC()

	var out []byte
	k.Terms.SetOutputHook(0, func(c byte) { out = append(out, c) })

	status, err := k.Execute(kernel.NoPID, 0, command)
	if err != nil {
		return err
	}
	fmt.Printf("exit status: %d\n", status)
	fmt.Print(string(out))

	printProcessTable(k.Procs.Snapshots())
	return nil
}

func printProcessTable(snaps []kernel.Snapshot) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"PID", "parent", "terminal", "flags"})
	for _, s := range snaps {
		table.Append([]string{
			fmt.Sprintf("%d", s.PID),
			fmt.Sprintf("%d", s.ParentPID),
			fmt.Sprintf("%d", s.Terminal),
			fmt.Sprintf("0x%02x", s.Flags),
		})
	}
	table.Render()
}

func main() {
	if err := setupCLI().Execute(); err != nil {
		os.Exit(1)
	}
}
