// tview loads the lines of a text file into a btree and browses them.
//
// Usage:
//
//	tview <filename>              # interactive mode
//	tview -l <filename>           # list mode (print all)
//	tview -l -n 20 <filename>     # list first 20 values
//	tview -d <filename>           # dump the tree structure
//	tview -m 64 -v <filename>     # max values per node, debug logging
//
// Files ending in .gz are decompressed on the fly.
//
// Interactive mode shows values in order, with a bar marking the first value
// of every leaf:
//
//	j/↓  k/↑   scroll one value
//	PgDn PgUp  scroll one page
//	g    G     jump to first or last
//	/          seek value (first >= input)
//	t          toggle between values and tree structure
//	q/Esc      quit
package main

import (
	"bufio"
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/klauspost/compress/gzip"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/dacapoday/btindex/btree"
)

func main() {
	listFlag := flag.Bool("l", false, "list mode (non-interactive)")
	countFlag := flag.Int("n", 0, "number of values (0 = all)")
	dumpFlag := flag.Bool("d", false, "dump tree structure")
	maxFlag := flag.Int("m", 32, "max values per node")
	verboseFlag := flag.Bool("v", false, "log tree restructuring")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: tview [-l] [-d] [-n count] [-m max] [-v] <filename>")
		os.Exit(1)
	}

	if *verboseFlag {
		btree.Log.SetLevel(logrus.DebugLevel)
	}

	t, err := load(flag.Arg(0), *maxFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer t.Destroy(nil)

	switch {
	case *dumpFlag:
		err = t.Dump(os.Stdout)
		if err == nil {
			fmt.Println(summary(t))
		}
	case *listFlag:
		err = list(os.Stdout, t, *countFlag)
	default:
		err = browse(t)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type tree = btree.BTree[string]

func load(filename string, maxValues int) (*tree, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var r io.Reader = file
	if strings.HasSuffix(filename, ".gz") {
		gz, err := gzip.NewReader(file)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		r = gz
	}

	t, err := btree.New(maxValues, strings.Compare, nil)
	if err != nil {
		return nil, err
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(nil, 1<<20)
	for scanner.Scan() {
		if _, _, err := t.Insert(scanner.Text()); err != nil {
			return nil, err
		}
	}
	return t, scanner.Err()
}

func summary(t *tree) string {
	s := t.Stats()
	p := message.NewPrinter(language.English)
	return p.Sprintf("%d values (%d removed), %d nodes, %d leaves, depth %d",
		s.Live, s.Tombstones, s.Nodes, s.Leaves, s.Depth)
}

func list(w io.Writer, t *tree, count int) error {
	n := 0
	for index, val := range t.All() {
		if count > 0 && n >= count {
			break
		}
		if _, err := fmt.Fprintf(w, "%8d: %s\n", index, display(val, 72)); err != nil {
			return err
		}
		n++
	}
	return nil
}

// browser keeps a cursor on the first visible value and redraws the page
// below it from a clone on every key.
type browser struct {
	tree      *tree
	top       *btree.Cursor[string]
	structure bool
	offset    int // first visible line of the structure view
	status    string
	in        *bufio.Reader
}

func browse(t *tree) error {
	fd := int(os.Stdin.Fd())
	state, err := term.MakeRaw(fd)
	if err != nil {
		return err
	}
	defer term.Restore(fd, state)

	fmt.Print("\033[?25l\033[2J")
	defer fmt.Print("\033[?25h\033[2J\033[H")

	b := &browser{tree: t, top: t.Cursor(), in: bufio.NewReader(os.Stdin)}
	b.top.SeekFirst()
	for {
		b.draw()
		key, err := b.key()
		if err != nil {
			return nil
		}
		b.status = ""
		switch key {
		case "q", "\x1b", "\x03":
			return nil
		case "j", "\x1b[B":
			b.scroll(1)
		case "k", "\x1b[A":
			b.scroll(-1)
		case " ", "\x1b[6~":
			b.scroll(b.rows() - 1)
		case "\x1b[5~":
			b.scroll(1 - b.rows())
		case "g":
			b.top.SeekFirst()
			b.offset = 0
		case "G":
			if b.structure {
				b.offset = int(^uint(0) >> 1) // clamped on draw
				break
			}
			b.top.SeekLast()
			b.scroll(2 - b.rows())
		case "t":
			b.structure = !b.structure
		case "/":
			b.seek()
		}
	}
}

// key reads one key press; escape sequences arrive in a single read.
func (b *browser) key() (string, error) {
	var buf [8]byte
	n, err := b.in.Read(buf[:])
	if err != nil {
		return "", err
	}
	return string(buf[:n]), nil
}

func (b *browser) size() (int, int) {
	w, h, err := term.GetSize(int(os.Stdin.Fd()))
	if err != nil {
		return 80, 24
	}
	return w, h
}

func (b *browser) rows() int {
	_, h := b.size()
	return max(h-2, 1) // header + status
}

func (b *browser) scroll(n int) {
	if b.structure {
		b.offset = max(b.offset+n, 0)
		return
	}
	for ; n > 0; n-- {
		if !b.top.Next() {
			b.top.SeekLast()
			return
		}
	}
	for ; n < 0; n++ {
		if !b.top.Prev() {
			b.top.SeekFirst()
			return
		}
	}
}

func (b *browser) seek() {
	_, h := b.size()
	fmt.Printf("\033[?25h\033[%d;1H\033[K/", h)
	defer fmt.Print("\033[?25l")

	var input []rune
	for {
		r, _, err := b.in.ReadRune()
		if err != nil {
			return
		}
		switch {
		case r == '\r' || r == '\n':
			if len(input) == 0 {
				return
			}
			if b.top.Seek(string(input)) {
				b.structure = false
				b.status = "at " + display(b.top.Value(), 30)
			} else {
				b.status = "nothing at or after " + display(string(input), 30)
			}
			return
		case r == 0x1b || r == 0x03:
			return
		case r == 0x7f || r == 0x08:
			if len(input) > 0 {
				input = input[:len(input)-1]
				fmt.Print("\b \b")
			}
		case unicode.IsPrint(r):
			input = append(input, r)
			fmt.Print(string(r))
		}
	}
}

func (b *browser) draw() {
	w, _ := b.size()
	var out bytes.Buffer
	out.WriteString("\033[H")
	fmt.Fprintf(&out, "\033[7m %s \033[0m\033[K\r\n", display(summary(b.tree), w-2))

	var lines []string
	if b.structure {
		lines = b.structureLines()
	} else {
		lines = b.valueLines(w)
	}
	for i := range b.rows() {
		if i < len(lines) {
			out.WriteString(lines[i])
		} else {
			out.WriteString("~")
		}
		out.WriteString("\033[K\r\n")
	}

	status := b.status
	if status == "" {
		status = "j/k scroll  g/G jump  / seek  t structure  q quit"
	}
	out.WriteString(" " + status + "\033[K")
	os.Stdout.Write(out.Bytes())
}

func (b *browser) valueLines(width int) []string {
	var lines []string
	var leaf *btree.Node
	c := b.top.Clone()
	for len(lines) < b.rows() && c.Valid() {
		entry, _ := c.Entry()
		mark := "│"
		if entry.Leaf != leaf {
			mark = "┌"
			leaf = entry.Leaf
		}
		lines = append(lines, fmt.Sprintf("%s %8d  %s", mark, entry.Index, display(entry.Value, max(width-14, 10))))
		c.Next()
	}
	return lines
}

func (b *browser) structureLines() []string {
	var dump bytes.Buffer
	if err := b.tree.Dump(&dump); err != nil {
		return []string{err.Error()}
	}
	lines := strings.Split(strings.TrimSuffix(dump.String(), "\n"), "\n")
	b.offset = min(b.offset, max(len(lines)-b.rows(), 0))
	return lines[b.offset:]
}

// display quotes values that are not printable text and shortens long ones
// to width runes.
func display(s string, width int) string {
	if s == "" {
		return "(empty)"
	}
	if !utf8.ValidString(s) || strings.IndexFunc(s, func(r rune) bool { return !unicode.IsPrint(r) }) >= 0 {
		s = strconv.Quote(s)
	}
	if runes := []rune(s); len(runes) > width {
		return string(runes[:max(width-1, 0)]) + "…"
	}
	return s
}
