package main

import (
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/pkg/browser"
	"github.com/rivo/tview"
	"github.com/spf13/cobra"

	"github.com/digineo/pingpanel/monitor"
)

const defaultSavePath = "pingpanel.yaml"

var (
	colorNone = tcell.NewRGBColor(0x81, 0x82, 0x74)
	colorPass = tcell.NewRGBColor(0xA1, 0xC2, 0x31)
	colorFail = tcell.NewRGBColor(0xF4, 0x30, 0x2F)

	groupColors = [monitor.NumGroups]tcell.Color{
		tcell.NewRGBColor(0x1B, 0x1B, 0x1B),
		tcell.NewRGBColor(0x4A, 0x42, 0x25),
		tcell.NewRGBColor(0x25, 0x4A, 0x30),
		tcell.NewRGBColor(0x25, 0x2D, 0x4A),
		tcell.NewRGBColor(0x4A, 0x25, 0x3F),
	}
)

var columns = []struct {
	title string
	align int
}{
	{"", tview.AlignLeft},
	{"host", tview.AlignLeft},
	{"address", tview.AlignLeft},
	{"sent", tview.AlignRight},
	{"loss", tview.AlignRight},
	{"last", tview.AlignRight},
	{"best", tview.AlignRight},
	{"worst", tview.AlignRight},
	{"mean", tview.AlignRight},
	{"stddev", tview.AlignRight},
	{"history", tview.AlignLeft},
}

type userInterface struct {
	app   *tview.Application
	pages *tview.Pages
	table *tview.Table
	logs  *tview.TextView

	session  *session
	capture  *logInterceptor
	savePath string
}

func runUI(cmd *cobra.Command, args []string) error {
	capture := interceptLog(50)
	defer log.SetOutput(os.Stderr)

	s, err := openSession(cmd, args)
	if err != nil {
		return err
	}
	defer s.Close()

	s.monitor.Start(s.cfg.Interval)

	ui := buildTUI(s, capture)
	done := make(chan struct{})
	go ui.update(s.cfg.Interval, done)

	err = ui.Run()
	close(done)
	return err
}

func buildTUI(s *session, capture *logInterceptor) *userInterface {
	ui := &userInterface{
		app:      tview.NewApplication(),
		pages:    tview.NewPages(),
		table:    tview.NewTable().SetBorders(false).SetFixed(1, 0).SetSelectable(true, false),
		logs:     tview.NewTextView(),
		session:  s,
		capture:  capture,
		savePath: configPath,
	}
	if ui.savePath == "" {
		ui.savePath = defaultSavePath
	}

	ui.table.SetBorder(true)
	ui.table.SetTitle(tview.Escape(" pingpanel: [space] scan [a]dd [e]dit [g]roup [d]elete [o]pen [w]rite [q]uit "))
	ui.logs.SetBorder(true)
	ui.logs.SetTitle(" log ")

	for c, col := range columns {
		ui.table.SetCell(0, c, tview.NewTableCell(col.title).
			SetAlign(col.align).
			SetSelectable(false).
			SetTextColor(tcell.ColorYellow))
	}

	ui.table.SetInputCapture(ui.handleTableKey)
	ui.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyCtrlC {
			ui.app.Stop()
			return nil
		}
		return event
	})

	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(ui.table, 0, 1, true).
		AddItem(ui.logs, 6, 0, false)
	ui.pages.AddPage("main", layout, true, true)

	// keep the browser's chatter off the terminal
	browser.Stdout = io.Discard
	browser.Stderr = io.Discard

	ui.refresh()
	return ui
}

func (ui *userInterface) Run() error {
	ui.app.SetRoot(ui.pages, true).SetFocus(ui.table)
	return ui.app.Run()
}

// update redraws the table every interval until done is closed.
func (ui *userInterface) update(interval time.Duration, done <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			ui.app.QueueUpdateDraw(ui.refresh)
		}
	}
}

// refresh fills the table from the monitor. Must run on the UI goroutine.
func (ui *userInterface) refresh() {
	window := ui.session.cfg.Window
	targets := ui.session.monitor.List()

	for i, snap := range targets {
		r := i + 1

		ui.setCell(r, 0, "██").
			SetTextColor(statusColor(snap)).
			SetReference(snap.ID)

		name := snap.Name
		if name == "" {
			name = "untitled"
		}
		ui.setCell(r, 1, name).SetBackgroundColor(groupColors[snap.Group])
		ui.setCell(r, 2, snap.Address)

		metrics, _ := ui.session.monitor.Metrics(snap.ID, window)
		if metrics == nil {
			for c := 3; c < 10; c++ {
				ui.setCell(r, c, "n/a")
			}
		} else {
			ui.setCell(r, 3, strconv.Itoa(metrics.PacketsSent))
			ui.setCell(r, 4, loss(metrics))
			ui.setCell(r, 5, last(metrics))
			ui.setCell(r, 6, ts(metrics.Best))
			ui.setCell(r, 7, ts(metrics.Worst))
			ui.setCell(r, 8, ts(metrics.Mean))
			ui.setCell(r, 9, ts(metrics.StdDev))
		}

		runs, _ := ui.session.monitor.Segments(snap.ID, window)
		ui.setCell(r, 10, sparkline(runs, window)).SetTextColor(colorPass)
	}

	for r := ui.table.GetRowCount() - 1; r > len(targets); r-- {
		ui.table.RemoveRow(r)
	}

	ui.logs.SetText(strings.Join(ui.capture.Messages(), "\n"))
	ui.logs.ScrollToEnd()
}

// setCell replaces the cell at (r, c).
func (ui *userInterface) setCell(r, c int, text string) *tview.TableCell {
	cell := tview.NewTableCell(text).SetAlign(columns[c].align)
	ui.table.SetCell(r, c, cell)
	return cell
}

func statusColor(snap monitor.Snapshot) tcell.Color {
	if !snap.Scanning {
		return colorNone
	}
	switch snap.Status {
	case monitor.StatusUp:
		return colorPass
	case monitor.StatusDown:
		return colorFail
	default:
		return colorNone
	}
}

// selected returns the ID of the target in the selected row.
func (ui *userInterface) selected() (monitor.ID, bool) {
	row, _ := ui.table.GetSelection()
	if row < 1 {
		return "", false
	}
	id, ok := ui.table.GetCell(row, 0).GetReference().(monitor.ID)
	return id, ok
}

func (ui *userInterface) handleTableKey(event *tcell.EventKey) *tcell.EventKey {
	m := ui.session.monitor

	switch event.Key() {
	case tcell.KeyEscape:
		ui.app.Stop()
		return nil
	case tcell.KeyDelete:
		ui.destroySelected()
		return nil
	case tcell.KeyRune:
	default:
		return event
	}

	id, hasSelection := ui.selected()

	switch event.Rune() {
	case 'q':
		ui.app.Stop()
	case 'a':
		ui.showForm("add target", monitor.Snapshot{}, func(name, address, notes string) {
			_, err := m.Create(monitor.Spec{Name: name, Address: address, Notes: notes})
			logError("add", err)
		})
	case 'w':
		if err := ui.session.save(ui.savePath); err != nil {
			log.Printf("save: %v", err)
		} else {
			log.Printf("targets written to %s", ui.savePath)
		}
	case ' ':
		if hasSelection {
			snap, err := m.Get(id)
			if err == nil {
				err = m.SetScanning(id, !snap.Scanning)
			}
			logError("scan", err)
		}
	case 'g':
		if hasSelection {
			snap, err := m.Get(id)
			if err == nil {
				err = m.SetGroup(id, (snap.Group+1)%monitor.NumGroups)
			}
			logError("group", err)
		}
	case 'e':
		if snap, err := m.Get(id); hasSelection && err == nil {
			ui.showForm("edit target", snap, func(name, address, notes string) {
				logError("rename", m.Rename(id, name))
				logError("address", m.SetAddress(id, address))
				logError("notes", m.SetNotes(id, notes))
			})
		}
	case 'd':
		ui.destroySelected()
	case 'o':
		if snap, err := m.Get(id); hasSelection && err == nil {
			openAddress(snap.Address)
		}
	default:
		return event
	}

	ui.refresh()
	return nil
}

func (ui *userInterface) destroySelected() {
	if id, ok := ui.selected(); ok {
		logError("delete", ui.session.monitor.Destroy(id))
		ui.refresh()
	}
}

// showForm opens a modal form prefilled from snap. submit is called with
// the entered values unless the form is cancelled.
func (ui *userInterface) showForm(title string, snap monitor.Snapshot, submit func(name, address, notes string)) {
	const page = "form"

	form := tview.NewForm()
	form.AddInputField("Name", snap.Name, 40, nil, nil)
	form.AddInputField("Address", snap.Address, 40, nil, nil)
	form.AddInputField("Notes", snap.Notes, 40, nil, nil)

	text := func(label string) string {
		if field, ok := form.GetFormItemByLabel(label).(*tview.InputField); ok {
			return field.GetText()
		}
		return ""
	}

	closeForm := func() {
		ui.pages.RemovePage(page)
		ui.app.SetFocus(ui.table)
		ui.refresh()
	}

	form.AddButton("Save", func() {
		if address := strings.TrimSpace(text("Address")); address == "" {
			log.Printf("%s: address must not be empty", title)
		} else {
			submit(text("Name"), address, text("Notes"))
		}
		closeForm()
	})
	form.AddButton("Cancel", closeForm)
	form.SetCancelFunc(closeForm)
	form.SetBorder(true)
	form.SetTitle(" " + title + " ")

	ui.pages.AddPage(page, center(form, 60, 11), true, true)
	ui.app.SetFocus(form)
}

func center(p tview.Primitive, width, height int) tview.Primitive {
	return tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(p, height, 1, true).
			AddItem(nil, 0, 1, false), width, 1, true).
		AddItem(nil, 0, 1, false)
}

// openAddress shows the web interface of address in the default browser.
func openAddress(address string) {
	u := addressURL(address)
	log.Printf("opening %s", u)
	go func() {
		logError("open", browser.OpenURL(u))
	}()
}

func logError(action string, err error) {
	if err != nil {
		log.Printf("%s: %v", action, err)
	}
}
