package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/wippyai/refptr/handles"
	"github.com/wippyai/refptr/registry"
	"github.com/wippyai/refptr/shared"
	"github.com/wippyai/refptr/weakref"
)

type object struct {
	id     int
	label  string
	onDrop func(*object)
}

func (o *object) Drop() {
	if o.onDrop != nil {
		o.onDrop(o)
	}
}

// session holds the handles a user manipulates by slot number. Strong
// slots are s1, s2, ... and live in a handle table, so freed numbers are
// reused. Weak slots are w1, w2, ...
type session struct {
	reg    *registry.Registry
	strong *handles.Table[object]
	weak   []weakref.Ptr[object]
	nextID int
	events []string
}

func newSession(reg *registry.Registry) *session {
	return &session{reg: reg, strong: handles.NewTable[object]()}
}

const sessionHelp = `commands:
  new <label>      allocate an object, hold it in a new strong slot
  clone <sN>       copy a strong handle into a new slot
  drop <sN>        reset a strong handle, keeping its slot
  free <sN>        reset a strong handle and free its slot
  assign <sN> <sM> make sN target what sM targets
  swap <sN> <sM>   exchange two strong handles
  weak <sN>        observe a strong handle's target
  lock <wN>        upgrade a weak handle into a new strong slot
  help             show this text`

func (s *session) exec(line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "new":
		label := strings.Join(args, " ")
		if label == "" {
			label = "object"
		}
		s.nextID++
		id := s.nextID
		p := shared.Make(s.reg, func(o *object) {
			o.id = id
			o.label = label
			o.onDrop = s.dropped
		})
		h, err := s.strong.Insert(&p)
		if err != nil {
			p.Reset()
			return "", err
		}
		return fmt.Sprintf("s%d -> #%d %s", h, id, label), nil

	case "clone":
		p, err := s.strongArg(args, 0)
		if err != nil {
			return "", err
		}
		c := p.Clone()
		desc, count := describe(&c), c.UseCount()
		h, err := s.strong.Insert(&c)
		if err != nil {
			c.Reset()
			return "", err
		}
		return fmt.Sprintf("s%d -> %s (count %d)", h, desc, count), nil

	case "drop":
		p, err := s.strongArg(args, 0)
		if err != nil {
			return "", err
		}
		desc := describe(p)
		p.Reset()
		return "dropped " + desc, nil

	case "free":
		if len(args) < 1 {
			return "", fmt.Errorf("missing strong slot")
		}
		h, err := parseSlot(args[0], "s")
		if err != nil {
			return "", err
		}
		if !s.strong.Remove(handles.Handle(h)) {
			return "", fmt.Errorf("no slot s%d", h)
		}
		return fmt.Sprintf("freed s%d", h), nil

	case "assign":
		dst, err := s.strongArg(args, 0)
		if err != nil {
			return "", err
		}
		src, err := s.strongArg(args, 1)
		if err != nil {
			return "", err
		}
		dst.Assign(src)
		return fmt.Sprintf("%s now %s", args[0], describe(dst)), nil

	case "swap":
		a, err := s.strongArg(args, 0)
		if err != nil {
			return "", err
		}
		b, err := s.strongArg(args, 1)
		if err != nil {
			return "", err
		}
		a.Swap(b)
		return fmt.Sprintf("swapped %s and %s", args[0], args[1]), nil

	case "weak":
		p, err := s.strongArg(args, 0)
		if err != nil {
			return "", err
		}
		s.weak = append(s.weak, weakref.From(p))
		return fmt.Sprintf("w%d observes %s", len(s.weak), describe(p)), nil

	case "lock":
		if len(args) < 1 {
			return "", fmt.Errorf("lock: missing weak slot")
		}
		i, err := parseSlot(args[0], "w")
		if err != nil {
			return "", err
		}
		if i < 1 || i > len(s.weak) {
			return "", fmt.Errorf("no slot w%d", i)
		}
		p := s.weak[i-1].Lock()
		if !p.Valid() {
			return fmt.Sprintf("w%d expired", i), nil
		}
		desc, count := describe(&p), p.UseCount()
		h, err := s.strong.Insert(&p)
		if err != nil {
			p.Reset()
			return "", err
		}
		return fmt.Sprintf("s%d -> %s (count %d)", h, desc, count), nil

	case "help":
		return sessionHelp, nil

	default:
		return "", fmt.Errorf("unknown command %q (try help)", cmd)
	}
}

func (s *session) strongArg(args []string, n int) (*shared.Ptr[object], error) {
	if len(args) <= n {
		return nil, fmt.Errorf("missing strong slot")
	}
	h, err := parseSlot(args[n], "s")
	if err != nil {
		return nil, err
	}
	p, ok := s.strong.Slot(handles.Handle(h))
	if !ok {
		return nil, fmt.Errorf("no slot s%d", h)
	}
	return p, nil
}

func (s *session) dropped(o *object) {
	s.events = append(s.events, fmt.Sprintf("#%d %s destroyed", o.id, o.label))
}

func (s *session) strongRows() []string {
	var rows []string
	s.strong.Each(func(h handles.Handle, p *shared.Ptr[object]) bool {
		if !p.Valid() {
			rows = append(rows, fmt.Sprintf("s%d  null", h))
		} else {
			rows = append(rows, fmt.Sprintf("s%d  %s  count=%d", h, describe(p), p.UseCount()))
		}
		return true
	})
	return rows
}

func (s *session) weakRows() []string {
	rows := make([]string, len(s.weak))
	for i, w := range s.weak {
		state := fmt.Sprintf("live count=%d", w.UseCount())
		if w.Expired() {
			state = "expired"
		}
		rows[i] = fmt.Sprintf("w%d  %s", i+1, state)
	}
	return rows
}

func (s *session) entryRows() []string {
	entries := s.reg.Snapshot()
	sort.Slice(entries, func(i, j int) bool { return entries[i].Addr < entries[j].Addr })
	rows := make([]string, len(entries))
	for i, e := range entries {
		rows[i] = fmt.Sprintf("%#x  %s  count=%d", e.Addr, e.TypeName(), e.Count)
	}
	return rows
}

// close releases every strong slot and closes the registry.
func (s *session) close() error {
	if err := s.strong.Close(); err != nil {
		return err
	}
	return s.reg.Close()
}

func describe(p *shared.Ptr[object]) string {
	o := p.Get()
	if o == nil {
		return "null"
	}
	return fmt.Sprintf("#%d %s", o.id, o.label)
}

func parseSlot(arg, prefix string) (int, error) {
	i, err := strconv.Atoi(strings.TrimPrefix(arg, prefix))
	if err != nil {
		return 0, fmt.Errorf("bad slot %q", arg)
	}
	return i, nil
}
