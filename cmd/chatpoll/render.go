package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"

	"market-chat/internal/models"
	"market-chat/internal/syncclient"
)

func stateLabel(s syncclient.State) string {
	switch s {
	case syncclient.Synced:
		return color.Green.Render(s.String())
	case syncclient.Error:
		return color.Red.Render(s.String())
	case syncclient.Loading:
		return color.Yellow.Render(s.String())
	default:
		return color.Gray.Render(s.String())
	}
}

func render(w io.Writer, userID int64, snap syncclient.Snapshot) {
	header := fmt.Sprintf(" user %d | %s ", userID, stateLabel(snap.State))
	if !snap.SyncedAt.IsZero() {
		header += fmt.Sprintf("| synced %s ", snap.SyncedAt.Format("15:04:05"))
	}
	fmt.Fprintln(w, color.New(color.BgBlack, color.FgWhite).Render(header))
	if snap.Err != nil {
		fmt.Fprintln(w, color.Red.Sprintf("last poll failed: %v (showing last synced data)", snap.Err))
	}

	contacts := tablewriter.NewWriter(w)
	contacts.SetHeader([]string{"", "Peer", "Last message", "When"})
	contacts.SetAutoWrapText(false)
	contacts.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	contacts.SetAlignment(tablewriter.ALIGN_LEFT)
	contacts.SetBorder(false)
	contacts.SetCenterSeparator("")
	contacts.SetColumnSeparator("")
	contacts.SetRowSeparator("")
	contacts.SetHeaderLine(false)
	contacts.SetTablePadding("\t")
	for _, c := range snap.Contacts {
		marker := ""
		if c.Peer.ID == snap.View.SelectedPeer {
			marker = ">"
		}
		contacts.Append([]string{marker, peerName(c.Peer), c.Preview, c.RelativeTime})
	}
	contacts.Render()

	if snap.View.SelectedPeer == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, color.Bold.Sprintf("thread with %d", snap.View.SelectedPeer))
	if len(snap.Thread.Messages) == 0 {
		fmt.Fprintln(w, color.Gray.Render("  no messages yet"))
		return
	}
	thread := tablewriter.NewWriter(w)
	thread.SetAutoWrapText(false)
	thread.SetBorder(false)
	thread.SetCenterSeparator("")
	thread.SetColumnSeparator("")
	thread.SetRowSeparator("")
	thread.SetTablePadding("\t")
	for _, m := range snap.Thread.Messages {
		who := strconv.FormatInt(m.SenderID, 10)
		if m.SenderID == userID {
			who = "me"
		}
		thread.Append([]string{m.CreatedAt.Local().Format("15:04:05"), who, messageBody(m)})
	}
	thread.Render()
}

func peerName(u models.User) string {
	if u.Name != "" {
		return u.Name
	}
	return "#" + strconv.FormatInt(u.ID, 10)
}

func messageBody(m models.Message) string {
	body := ""
	if m.Text != nil {
		body = *m.Text
	}
	if m.Image != nil {
		if body != "" {
			body += " "
		}
		body += color.Cyan.Sprintf("[image %s]", *m.Image)
	}
	return body
}
