package document

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// PathCmd is one SVG-style path instruction with absolute coordinates.
// Supported ops: M, L, Q, C, Z.
type PathCmd struct {
	Op   string
	Args []float64
}

func MoveTo(x, y float64) PathCmd { return PathCmd{Op: "M", Args: []float64{x, y}} }
func LineTo(x, y float64) PathCmd { return PathCmd{Op: "L", Args: []float64{x, y}} }
func QuadTo(cx, cy, x, y float64) PathCmd {
	return PathCmd{Op: "Q", Args: []float64{cx, cy, x, y}}
}
func ClosePath() PathCmd { return PathCmd{Op: "Z"} }

func argCount(op string) (int, bool) {
	switch op {
	case "M", "L":
		return 2, true
	case "Q":
		return 4, true
	case "C":
		return 6, true
	case "Z":
		return 0, true
	}
	return 0, false
}

// MarshalJSON encodes the command as ["L", x, y].
func (c PathCmd) MarshalJSON() ([]byte, error) {
	out := make([]any, 0, len(c.Args)+1)
	out = append(out, c.Op)
	for _, a := range c.Args {
		out = append(out, a)
	}
	return json.Marshal(out)
}

func (c *PathCmd) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) == 0 {
		return fmt.Errorf("empty path command: %w", ErrInvalidPath)
	}
	var op string
	if err := json.Unmarshal(raw[0], &op); err != nil {
		return fmt.Errorf("path op: %w", err)
	}
	n, ok := argCount(op)
	if !ok || len(raw)-1 != n {
		return fmt.Errorf("path op %q with %d args: %w", op, len(raw)-1, ErrInvalidPath)
	}
	args := make([]float64, n)
	for i := range args {
		if err := json.Unmarshal(raw[i+1], &args[i]); err != nil {
			return fmt.Errorf("path arg %d: %w", i, err)
		}
	}
	c.Op, c.Args = op, args
	return nil
}

// FormatPath renders commands as an SVG path string.
func FormatPath(cmds []PathCmd) string {
	var sb strings.Builder
	for i, c := range cmds {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(c.Op)
		for _, a := range c.Args {
			sb.WriteByte(' ')
			sb.WriteString(strconv.FormatFloat(a, 'f', -1, 64))
		}
	}
	return sb.String()
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// PathBounds returns the box enclosing every coordinate of cmds, control
// points included.
func PathBounds(cmds []PathCmd) (minX, minY, maxX, maxY float64) {
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, c := range cmds {
		for i := 0; i+1 < len(c.Args); i += 2 {
			x, y := c.Args[i], c.Args[i+1]
			minX, maxX = math.Min(minX, x), math.Max(maxX, x)
			minY, maxY = math.Min(minY, y), math.Max(maxY, y)
		}
	}
	if math.IsInf(minX, 1) {
		return 0, 0, 0, 0
	}
	return minX, minY, maxX, maxY
}

// NormalizePath shifts absolute commands so their bounds start at (0, 0).
// It returns the local geometry and the absolute top-left.
func NormalizePath(cmds []PathCmd) (PathData, float64, float64) {
	minX, minY, maxX, maxY := PathBounds(cmds)
	local := make([]PathCmd, len(cmds))
	for i, c := range cmds {
		args := make([]float64, len(c.Args))
		for j, a := range c.Args {
			if j%2 == 0 {
				args[j] = Round2(a - minX)
			} else {
				args[j] = Round2(a - minY)
			}
		}
		local[i] = PathCmd{Op: c.Op, Args: args}
	}
	return PathData{Commands: local, Width: maxX - minX, Height: maxY - minY}, minX, minY
}
