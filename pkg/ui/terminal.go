package ui

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"golang.org/x/term"
)

// ASCIILogo is printed at the start of interactive commands
const ASCIILogo = `
    ╔═══════════════════════════════════════════════════╗
    ║ ██╗    ██╗██████╗ ███████╗ ██████╗██████╗  █████╗  ║
    ║ ██║    ██║██╔══██╗██╔════╝██╔════╝██╔══██╗██╔══██╗ ║
    ║ ██║ █╗ ██║██████╔╝███████╗██║     ██████╔╝███████║ ║
    ║ ██║███╗██║██╔══██╗╚════██║██║     ██╔══██╗██╔══██║ ║
    ║ ╚███╔███╔╝██████╔╝███████║╚██████╗██║  ██║██║  ██║ ║
    ║  ╚══╝╚══╝ ╚═════╝ ╚══════╝ ╚═════╝╚═╝  ╚═╝╚═╝  ╚═╝ ║
    ║        RECIPROCAL FOLLOW NETWORK DISCOVERY         ║
    ╚═══════════════════════════════════════════════════╝
`

var (
	quiet   bool
	noColor bool
)

// SetQuietMode suppresses everything but errors
func SetQuietMode(q bool) {
	quiet = q
}

// SetNoColor disables ANSI colors. Colors are also off when stdout is not a terminal.
func SetNoColor(n bool) {
	noColor = n
}

// Color functions for terminal output
var (
	Cyan    = colorize("\033[36m%s\033[0m")
	Yellow  = colorize("\033[33m%s\033[0m")
	Red     = colorize("\033[31m%s\033[0m")
	Green   = colorize("\033[32m%s\033[0m")
	Magenta = colorize("\033[35m%s\033[0m")
	Dim     = colorize("\033[2m%s\033[0m")
)

func colorize(colorString string) func(string) string {
	return func(text string) string {
		if noColor || !term.IsTerminal(int(os.Stdout.Fd())) {
			return text
		}
		return fmt.Sprintf(colorString, text)
	}
}

// PrintLogo prints the ASCII logo with color
func PrintLogo() {
	if quiet {
		return
	}
	fmt.Print(Cyan(ASCIILogo))
}

// PrintError prints an error message in red to stderr
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		fmt.Fprintln(os.Stderr, Red(msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Fprintln(os.Stderr, Red(msg))
	}
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	if quiet {
		return
	}
	fmt.Println(Green(msg))
}

// PrintInfo prints a label/value pair
func PrintInfo(label string, value string) {
	if quiet {
		return
	}
	fmt.Printf("%s: %s\n", Cyan(label), Yellow(value))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(msg string, args ...interface{}) {
	if quiet {
		return
	}
	if len(args) > 0 {
		fmt.Println(Yellow(msg + ": " + fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Println(Yellow(msg))
	}
}

// PrintHighlight prints a highlighted message in magenta
func PrintHighlight(msg string) {
	if quiet {
		return
	}
	fmt.Println(Magenta(msg))
}

// NetworkRow is one line of a network table
type NetworkRow struct {
	Rank           int
	Depth          int
	ID             int64
	ScreenName     string
	FollowersCount int
	Location       string
}

// WriteNetworkTable prints rows as an aligned table
func WriteNetworkTable(w io.Writer, rows []NetworkRow) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tDEPTH\tID\tSCREEN NAME\tFOLLOWERS\tLOCATION")
	for _, r := range rows {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%d\t%s\n",
			r.Rank, r.Depth, strconv.FormatInt(r.ID, 10), r.ScreenName, r.FollowersCount, r.Location)
	}
	return tw.Flush()
}
