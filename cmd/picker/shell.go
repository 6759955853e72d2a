package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/zaviruha/bookingcalendar/internal/calendar"
	"github.com/zaviruha/bookingcalendar/internal/picker"
	"github.com/zaviruha/bookingcalendar/internal/render"
)

const helpText = `commands:
  show                 draw the month and the slots of the selected date
  next | prev          move one month forward / back
  date YYYY-MM-DD      select a date
  time HH:MM           select a slot of the selected date
  get                  print the selected date and time as JSON
  refresh              reload booked slots from api-url
  reset                clear the selection
  help                 this text
  quit                 exit
`

// shell — построчный интерфейс к виджету. События могут прийти из цикла
// обновления, поэтому вывод сериализуется.
type shell struct {
	w   *picker.Widget
	in  io.Reader
	mu  sync.Mutex
	out io.Writer
}

func newShell(w *picker.Widget, in io.Reader, out io.Writer) *shell {
	return &shell{w: w, in: in, out: out}
}

func (s *shell) printf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, format, args...)
}

func (s *shell) printEvent(e picker.Event) {
	switch e.Type {
	case picker.EventLoadingChange:
		s.printf("event %s loading=%t\n", e.Type, e.Loading)
	case picker.EventTimeSelected:
		s.printf("event %s %s\n", e.Type, e.DateTime)
	case picker.EventDateSelected, picker.EventSlotsUpdated:
		s.printf("event %s %s\n", e.Type, e.Date)
	default:
		s.printf("event %s\n", e.Type)
	}
}

func (s *shell) show() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := render.Text(s.out, s.w); err != nil {
		fmt.Fprintf(s.out, "render: %v\n", err)
	}
}

// run читает команды до quit, EOF или отмены ctx.
func (s *shell) run(ctx context.Context) error {
	s.show()
	scanner := bufio.NewScanner(s.in)
	for {
		if ctx.Err() != nil {
			return nil
		}
		s.printf("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		if quit := s.exec(ctx, scanner.Text()); quit {
			return nil
		}
	}
}

// exec выполняет одну команду и сообщает, пора ли выходить.
func (s *shell) exec(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "quit", "exit", "q":
		return true
	case "help", "?":
		s.printf("%s", helpText)
	case "show":
		s.show()
	case "next":
		s.w.NavigateMonth(1)
		s.show()
	case "prev":
		s.w.NavigateMonth(-1)
		s.show()
	case "date":
		if len(args) != 1 {
			s.printf("usage: date YYYY-MM-DD\n")
			return false
		}
		d, err := calendar.ParseDate(args[0])
		if err != nil {
			s.printf("%v\n", err)
			return false
		}
		if !s.w.SelectDate(d) {
			s.printf("date %s is not selectable\n", d)
			return false
		}
		s.show()
	case "time":
		if len(args) != 1 {
			s.printf("usage: time HH:MM\n")
			return false
		}
		if !s.w.SelectTime(args[0]) {
			s.printf("slot %s is not available\n", args[0])
			return false
		}
		s.show()
	case "get":
		sel, ok := s.w.SelectedDateTime()
		if !ok {
			s.printf("null\n")
			return false
		}
		b, err := json.Marshal(sel)
		if err != nil {
			s.printf("%v\n", err)
			return false
		}
		s.printf("%s\n", b)
	case "refresh":
		if err := s.w.Refresh(ctx); err != nil {
			s.printf("refresh failed: %v\n", err)
			return false
		}
		s.show()
	case "reset":
		s.w.Reset()
		s.show()
	default:
		s.printf("unknown command %q, type help\n", cmd)
	}
	return false
}
