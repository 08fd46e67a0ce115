package view

import (
	"fmt"
	"io"
	"strconv"

	"github.com/mrz1836/skillmint/internal/output"
)

// WriteText renders m as a terminal storefront.
func WriteText(w io.Writer, m Model) error {
	if _, err := fmt.Fprintf(w, "%s\n\n", m.Title); err != nil {
		return err
	}

	if !m.Connected {
		var err error
		if m.ProviderAvailable {
			_, err = fmt.Fprintln(w, ConnectLabel+": no account connected. Run 'skillmint store' or 'skillmint serve' with a wallet configured.")
		} else {
			err = output.Warn(w, "No wallet found. Create one with 'skillmint wallet create'.")
		}
		if err != nil {
			return err
		}
		return writeBanners(w, m)
	}

	if _, err := fmt.Fprintf(w, "Connected Account: %s\n\n", m.AccountShort); err != nil {
		return err
	}

	table := output.NewTable("ID", "COURSE", "PRICE", "STATUS")
	for _, c := range m.Cards {
		table.AddRow(strconv.FormatUint(c.ID, 10), c.Title, c.PriceDisplay, c.Action)
	}
	if err := table.Render(w); err != nil {
		return err
	}
	return writeBanners(w, m)
}

func writeBanners(w io.Writer, m Model) error {
	if m.Error != "" {
		if err := output.Failure(w, m.Error); err != nil {
			return err
		}
	}
	if m.Success != "" {
		if err := output.Success(w, m.Success); err != nil {
			return err
		}
	}
	return nil
}
