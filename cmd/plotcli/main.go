// Command plotcli samples an expression and prints the points, for piping
// into a plotting program.
//
// Usage:
//
//	plotcli -expr 'sin(x)' -min -5 -max 5 -points 200 [-deriv] [-integral]
//
// On a terminal the output is an aligned table; otherwise it is CSV.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/mattn/go-isatty"

	"github.com/njchilds90/symplot"
)

func main() {
	fd := os.Stdout.Fd()
	tty := isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr, tty))
}

type options struct {
	expr     string
	varName  string
	min, max float64
	points   int
	deriv    bool
	integral bool
	config   string
	format   string
}

func run(args []string, stdout, stderr io.Writer, tty bool) int {
	var o options
	fs := flag.NewFlagSet("plotcli", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.expr, "expr", "", "expression to sample (default: first configured preset)")
	fs.StringVar(&o.varName, "var", "x", "variable name")
	fs.Float64Var(&o.min, "min", 0, "lower end of the range")
	fs.Float64Var(&o.max, "max", 0, "upper end of the range")
	fs.IntVar(&o.points, "points", 0, "number of points, clamped to [100, 5000]")
	fs.BoolVar(&o.deriv, "deriv", false, "add a derivative column")
	fs.BoolVar(&o.integral, "integral", false, "print the definite integral over the range")
	fs.StringVar(&o.config, "config", "", "TOML or YAML configuration file")
	fs.StringVar(&o.format, "format", "", "table or csv (default: table on a terminal, else csv)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "plotcli: unexpected argument %q\n", fs.Arg(0))
		return 2
	}

	cfg := symplot.Default()
	if o.config != "" {
		var err error
		if cfg, err = symplot.LoadConfig(o.config); err != nil {
			fmt.Fprintln(stderr, "plotcli:", err)
			return 1
		}
	}
	// Flags override the configuration only when given.
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if !set["min"] {
		o.min = cfg.Plot.XMin
	}
	if !set["max"] {
		o.max = cfg.Plot.XMax
	}
	if !set["points"] {
		o.points = cfg.Plot.Points
	}
	if o.expr == "" {
		names := append(cfg.Plot.Functions, symplot.DefaultSelection()...)
		p, err := symplot.LookupPreset(names[0])
		if err != nil {
			fmt.Fprintln(stderr, "plotcli:", err)
			return 1
		}
		o.expr = p.Expr
	}
	if o.format == "" {
		o.format = "csv"
		if tty {
			o.format = "table"
		}
	}
	if o.format != "csv" && o.format != "table" {
		fmt.Fprintf(stderr, "plotcli: unknown format %q\n", o.format)
		return 2
	}

	if err := sample(o, cfg, stdout, stderr); err != nil {
		fmt.Fprintln(stderr, "plotcli:", err)
		return 1
	}
	return 0
}

func sample(o options, cfg symplot.Config, stdout, stderr io.Writer) error {
	e, err := symplot.Parse(o.expr, o.varName)
	if err != nil {
		return err
	}
	f, err := symplot.Compile(e, o.varName)
	if err != nil {
		return err
	}
	d, err := symplot.Linspace(o.min, o.max, symplot.ClampPoints(o.points))
	if err != nil {
		return err
	}
	s, err := symplot.Sample(f, d)
	if err != nil {
		return err
	}
	header := []string{o.varName, "y"}
	columns := [][]float64{s.X, s.Y}
	if o.deriv {
		de, err := symplot.Derivative(e, o.varName)
		if err != nil {
			return err
		}
		df, err := symplot.Compile(de, o.varName)
		if err != nil {
			return err
		}
		ds, err := symplot.Sample(df, d)
		if err != nil {
			return err
		}
		aligned, err := symplot.Align(s, ds)
		if err != nil {
			return err
		}
		s = aligned[0]
		header = append(header, "d/d"+o.varName+" "+de.String())
		columns = [][]float64{s.X, s.Y, aligned[1].Y}
	}
	if w := s.Warning(); w != "" {
		fmt.Fprintln(stderr, "warning:", w)
	}

	if o.format == "csv" {
		err = writeCSV(stdout, header, columns)
	} else {
		err = writeTable(stdout, header, columns)
	}
	if err != nil {
		return err
	}

	if o.integral {
		r, err := symplot.DefiniteIntegral(e, o.varName, d.Min, d.Max, cfg.Quadrature.QuadOptions()...)
		if err != nil {
			return err
		}
		out := stdout
		if o.format == "csv" {
			out = stderr
		}
		fmt.Fprintf(out, "integral over [%g, %g]: symbolic %s, numeric %.10g (+/- %.2g)\n",
			d.Min, d.Max, r.SymbolicString(), r.Numeric, r.AbsErr)
	}
	return nil
}

func formatRow(columns [][]float64, i int) []string {
	row := make([]string, len(columns))
	for j, col := range columns {
		row[j] = strconv.FormatFloat(col[i], 'g', 10, 64)
	}
	return row
}

func writeCSV(w io.Writer, header []string, columns [][]float64) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for i := range columns[0] {
		if err := cw.Write(formatRow(columns, i)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeTable(w io.Writer, header []string, columns [][]float64) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	writeLine := func(cells []string) {
		for _, c := range cells {
			fmt.Fprint(tw, c, "\t")
		}
		fmt.Fprintln(tw)
	}
	writeLine(header)
	for i := range columns[0] {
		writeLine(formatRow(columns, i))
	}
	return tw.Flush()
}
