//go:build linux

package pool

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// openPTY allocates one pseudo-terminal pair. The master side is switched
// to raw mode and non-blocking I/O for the hub's poll loop; the slave
// side is returned open so the device name stays allocated until the
// pool closes it.
func openPTY() (master, slave int, name string, err error) {
	master, err = unix.Open("/dev/ptmx", unix.O_RDWR|unix.O_NOCTTY, 0)
	if err != nil {
		return 0, 0, "", fmt.Errorf("open /dev/ptmx: %w", err)
	}

	if err = unix.IoctlSetPointerInt(master, unix.TIOCSPTLCK, 0); err != nil {
		unix.Close(master)
		return 0, 0, "", fmt.Errorf("unlock slave side: %w", err)
	}

	ptn, err := unix.IoctlGetInt(master, unix.TIOCGPTN)
	if err != nil {
		unix.Close(master)
		return 0, 0, "", fmt.Errorf("slave number: %w", err)
	}
	name = fmt.Sprintf("/dev/pts/%d", ptn)

	slave, err = unix.Open(name, unix.O_RDWR|unix.O_NOCTTY, 0)
	if err != nil {
		unix.Close(master)
		return 0, 0, "", fmt.Errorf("open %s: %w", name, err)
	}

	// A pty pair shares one termios; raw mode set through the master
	// covers both sides, so client bytes pass through unmangled.
	if err = setRaw(master); err != nil {
		unix.Close(master)
		unix.Close(slave)
		return 0, 0, "", fmt.Errorf("raw mode %s: %w", name, err)
	}

	if err = unix.SetNonblock(master, true); err != nil {
		unix.Close(master)
		unix.Close(slave)
		return 0, 0, "", fmt.Errorf("set non-blocking %s: %w", name, err)
	}

	return master, slave, name, nil
}

// setRaw disables all line-discipline processing on the terminal,
// the cfmakeraw flag set.
func setRaw(fd int) error {
	tio, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return err
	}

	tio.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP |
		unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	tio.Oflag &^= unix.OPOST
	tio.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	tio.Cflag &^= unix.CSIZE | unix.PARENB
	tio.Cflag |= unix.CS8
	tio.Cc[unix.VMIN] = 1
	tio.Cc[unix.VTIME] = 0

	return unix.IoctlSetTermios(fd, unix.TCSETS, tio)
}
