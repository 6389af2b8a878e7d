// meshtool is a CLI utility for inspecting, exploding and exporting
// triangle-soup meshes without opening a window.
package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/Faultbox/explodeview/internal/explode"
	"github.com/Faultbox/explodeview/internal/export"
	"github.com/Faultbox/explodeview/internal/geometry"
	"github.com/Faultbox/explodeview/internal/logger"
	"github.com/Faultbox/explodeview/internal/mesh"
	"github.com/Faultbox/explodeview/internal/viewer"
	"github.com/Faultbox/explodeview/pkg/formats"
)

// errUsage makes main print the command usage and exit non-zero.
var errUsage = errors.New("usage")

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(1)
	}

	// Warnings only; stdout may carry an STL stream.
	_ = logger.Init("warn", "")
	defer logger.Sync()

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "info":
		err = cmdInfo(args, os.Stdout)
	case "export":
		err = cmdExport(args, os.Stdout)
	case "explode":
		err = cmdExplode(args, os.Stdout)
	case "verify":
		err = cmdVerify(args, os.Stdout)
	case "help", "-h", "--help":
		printUsage(os.Stdout)
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage(os.Stderr)
		os.Exit(1)
	}

	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if errors.Is(err, errUsage) {
		printUsage(os.Stderr)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `meshtool - triangle-soup mesh utility

Usage:
  meshtool <command> [options] <mesh>

Meshes are {"v": [[[x,y,z],[x,y,z],[x,y,z]], ...]} JSON or STL (.stl).

Commands:
  info <mesh>                          Show counts, bounds, area and volume
  export [-o file] [-format ascii|binary] [-name solid]
         [-exploded] [-factor f] <mesh>
                                       Write the mesh as STL (stdout by default)
  explode [-o file] [-factor f] [-scale s] <mesh>
                                       Write the exploded mesh as JSON
  verify <mesh>                        Check that exports re-ingest unchanged

Examples:
  meshtool info bracket.json
  meshtool export -exploded -factor 5 -o bracket.stl bracket.json
  meshtool explode -factor 2.5 bracket.json > exploded.json`)
}

func cmdInfo(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errUsage
	}

	src, err := viewer.ReadMesh(fs.Arg(0))
	if err != nil {
		return err
	}
	st := mesh.ComputeStats(src)
	size := st.Bounds.Size()

	fmt.Fprintf(out, "Mesh:       %s\n", fs.Arg(0))
	fmt.Fprintf(out, "Triangles:  %d\n", st.TriangleCount)
	fmt.Fprintf(out, "Vertices:   %d\n", st.VertexCount)
	fmt.Fprintf(out, "Bounds:     [%g %g %g] .. [%g %g %g]\n",
		st.Bounds.Min[0], st.Bounds.Min[1], st.Bounds.Min[2],
		st.Bounds.Max[0], st.Bounds.Max[1], st.Bounds.Max[2])
	fmt.Fprintf(out, "Size:       %g x %g x %g\n", size.X, size.Y, size.Z)
	fmt.Fprintf(out, "Centroid:   %g %g %g\n", st.Centroid.X, st.Centroid.Y, st.Centroid.Z)
	fmt.Fprintf(out, "Area:       %g\n", st.SurfaceArea)
	fmt.Fprintf(out, "Volume:     %g\n", st.Volume)
	if st.Degenerate > 0 {
		fmt.Fprintf(out, "Degenerate: %d\n", st.Degenerate)
	}
	return nil
}

func cmdExport(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	output := fs.String("o", "", "Output file (default stdout)")
	format := fs.String("format", string(export.ASCII), "STL encoding: ascii or binary")
	name := fs.String("name", formats.DefaultSolidName, "Solid name")
	exploded := fs.Bool("exploded", false, "Export the exploded geometry")
	factor := fs.Float64("factor", float64(explode.DefaultFactor), "Explosion factor (0-10)")
	scale := fs.Float64("scale", float64(explode.DefaultScale), "Explosion scale")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errUsage
	}

	src, err := viewer.ReadMesh(fs.Arg(0))
	if err != nil {
		return err
	}

	buf := geometry.New(src, geometry.Options{Scale: float32(*scale), Factor: float32(*factor)})
	snap := buf.CurrentSnapshot()
	if *exploded {
		snap = buf.SetMode(geometry.Exploded)
	}

	exp := export.New(*name, export.Format(*format))
	if *output != "" {
		return exp.WriteFile(snap, *output)
	}
	data, err := exp.Export(snap)
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}

func cmdExplode(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("explode", flag.ContinueOnError)
	output := fs.String("o", "", "Output file (default stdout)")
	factor := fs.Float64("factor", float64(explode.DefaultFactor), "Explosion factor (0-10)")
	scale := fs.Float64("scale", float64(explode.DefaultScale), "Explosion scale")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errUsage
	}

	src, err := viewer.ReadMesh(fs.Arg(0))
	if err != nil {
		return err
	}

	f := explode.ClampFactor(float32(*factor))
	verts := explode.Apply(src.Vertices, src.Indices, f, float32(*scale))

	var buf bytes.Buffer
	if err := formats.WriteSoup(&buf, toSoup(verts, src.TriangleCount)); err != nil {
		return err
	}
	if *output != "" {
		return os.WriteFile(*output, buf.Bytes(), 0644)
	}
	_, err = out.Write(buf.Bytes())
	return err
}

func toSoup(vertices []float32, triangles int) formats.Soup {
	soup := make(formats.Soup, triangles)
	for t := range soup {
		tri := make([][]float64, 3)
		for v := range tri {
			base := 9*t + 3*v
			tri[v] = []float64{
				float64(vertices[base]),
				float64(vertices[base+1]),
				float64(vertices[base+2]),
			}
		}
		soup[t] = tri
	}
	return soup
}

func cmdVerify(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errUsage
	}

	src, err := viewer.ReadMesh(fs.Arg(0))
	if err != nil {
		return err
	}
	buf := geometry.New(src, geometry.DefaultOptions())

	failed := 0
	for _, mode := range []geometry.Mode{geometry.Assembled, geometry.Exploded} {
		snap := buf.SetMode(mode)
		for _, format := range []export.Format{export.ASCII, export.Binary} {
			err := verifyRoundTrip(snap, format)
			status := "ok"
			if err != nil {
				status = "FAIL: " + err.Error()
				failed++
			}
			fmt.Fprintf(out, "%-9s %-6s %s\n", mode, format, status)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d round trip(s) failed", failed)
	}
	return nil
}

func verifyRoundTrip(snap *geometry.Snapshot, format export.Format) error {
	data, err := export.New("", format).Export(snap)
	if err != nil {
		return err
	}
	stl, err := formats.ParseSTL(data)
	if err != nil {
		return err
	}
	back, err := mesh.Ingest(stl.Soup())
	if err != nil {
		return err
	}
	if len(back.Vertices) != len(snap.Vertices) {
		return fmt.Errorf("vertex count %d, want %d", len(back.Vertices)/3, len(snap.Vertices)/3)
	}
	for i, v := range snap.Vertices {
		if back.Vertices[i] != v {
			return fmt.Errorf("vertex %d component %d is %g, want %g", i/3, i%3, back.Vertices[i], v)
		}
	}
	return nil
}
