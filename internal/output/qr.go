package output

import (
	"fmt"
	"io"
	"os"

	"github.com/mdp/qrterminal/v3"
	"golang.org/x/term"
	"rsc.io/qr"
)

// PaymentURI returns the EIP-681 URI for sending funds to address on chainID.
// A zero chainID omits the chain suffix.
func PaymentURI(address string, chainID int64) string {
	if chainID == 0 {
		return "ethereum:" + address
	}
	return fmt.Sprintf("ethereum:%s@%d", address, chainID)
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd())) //nolint:gosec // G115: Fd() returns uintptr, safe conversion for term.IsTerminal
}

// RenderQR draws data as a half-block QR code when w is a terminal.
// Other writers receive nothing.
func RenderQR(w io.Writer, data string) {
	if !IsTerminal(w) {
		return
	}
	qrterminal.GenerateWithConfig(data, qrterminal.Config{
		Level:          qr.L,
		Writer:         w,
		QuietZone:      1,
		HalfBlocks:     true,
		BlackChar:      qrterminal.BLACK_BLACK,
		WhiteChar:      qrterminal.WHITE_WHITE,
		WhiteBlackChar: qrterminal.WHITE_BLACK,
		BlackWhiteChar: qrterminal.BLACK_WHITE,
	})
}
