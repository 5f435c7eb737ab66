// Command pppd brings up one PPP interface over a serial modem (or,
// with --device=pty, a loopback pseudo-terminal for local testing)
// and keeps it up until interrupted.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/creack/pty"
	"github.com/spf13/pflag"

	"github.com/ppplink/ppp/clock"
	"github.com/ppplink/ppp/config"
	"github.com/ppplink/ppp/iface"
	"github.com/ppplink/ppp/serial"
)

func main() {
	configFile := pflag.StringP("config-file", "c", "", "YAML configuration file. Flags below override its fields.")
	device := pflag.StringP("device", "d", "", "Serial device path, or \"pty\" for a loopback pseudo-terminal.")
	baud := pflag.IntP("baud", "b", 0, "Serial baud rate. 0 leaves the port's current speed alone.")
	username := pflag.StringP("username", "u", "", "PAP username.")
	password := pflag.StringP("password", "p", "", "PAP password.")
	localAddress := pflag.StringP("local-address", "a", "", "IPv4 address to offer the peer for IPCP.")
	localIID := pflag.Uint64P("local-iid", "i", 0, "64-bit IPv6 interface identifier to offer for IPv6CP.")
	help := pflag.BoolP("help", "h", false, "Display help text.")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s - a userspace PPP daemon for serial/modem links.\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nUsage: pppd [options]\n\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if *help {
		pflag.Usage()
		os.Exit(0)
	}

	cfg := config.Default()
	if *configFile != "" {
		var err error
		cfg, err = config.LoadFile(*configFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	applyFlagOverrides(&cfg, device, baud, username, password, localAddress, localIID)

	if err := run(cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func applyFlagOverrides(cfg *config.InterfaceConfig, device *string, baud *int, username, password, localAddress *string, localIID *uint64) {
	if pflag.Lookup("device").Changed {
		cfg.Device = *device
	}
	if pflag.Lookup("baud").Changed {
		cfg.Baud = *baud
	}
	if pflag.Lookup("username").Changed {
		cfg.Username = *username
	}
	if pflag.Lookup("password").Changed {
		cfg.Password = *password
	}
	if pflag.Lookup("local-address").Changed {
		cfg.LocalAddress = *localAddress
	}
	if pflag.Lookup("local-iid").Changed {
		cfg.LocalIID = *localIID
	}
}

func run(cfg config.InterfaceConfig) error {
	localIP, err := cfg.LocalIP()
	if err != nil {
		return err
	}

	transport, err := openTransport(cfg)
	if err != nil {
		return err
	}
	defer transport.Close()

	ifc := iface.New(transport, clock.NewReal(), cfg.Username, cfg.Password, localIP, cfg.LocalIID, cfg.MRU)
	transport.onByte = ifc.OnByte
	go ifc.Run()
	defer ifc.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	return nil
}

// byteTransport adapts a bidirectional io device (serial.Port or a
// pty pair) into iface.Transport, gluing its read side to whatever
// onByte callback run installs.
type byteTransport struct {
	writeCloser interface {
		Write(p []byte) (int, error)
		Close() error
	}
	onByte func(byte)
}

func (t *byteTransport) Write(p []byte) (int, error) { return t.writeCloser.Write(p) }
func (t *byteTransport) Close() error                { return t.writeCloser.Close() }

func openTransport(cfg config.InterfaceConfig) (*byteTransport, error) {
	if cfg.Device == "pty" {
		return openPTY()
	}
	return openSerial(cfg)
}

func openSerial(cfg config.InterfaceConfig) (*byteTransport, error) {
	t := &byteTransport{}
	port, err := serial.Open(cfg.Device, cfg.Baud, func(b byte) {
		if t.onByte != nil {
			t.onByte(b)
		}
	})
	if err != nil {
		return nil, err
	}
	t.writeCloser = port
	return t, nil
}

// openPTY opens a pseudo-terminal pair for local loopback testing:
// the master end is the transport, the slave end's path is printed
// so another pppd (or a raw terminal) can be attached to the other
// side of the link.
func openPTY() (*byteTransport, error) {
	ptmx, pts, err := pty.Open()
	if err != nil {
		return nil, fmt.Errorf("pppd: opening pty: %w", err)
	}
	fmt.Fprintf(os.Stderr, "pppd: peer side available at %s\n", pts.Name())

	t := &byteTransport{writeCloser: ptmx}
	go func() {
		buf := make([]byte, 1)
		for {
			n, err := ptmx.Read(buf)
			if err != nil {
				return
			}
			if n == 1 && t.onByte != nil {
				t.onByte(buf[0])
			}
		}
	}()
	return t, nil
}
