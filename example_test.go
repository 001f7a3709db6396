package octoview_test

import (
	"context"
	"fmt"
	"log"

	"github.com/golang/geo/r3"

	"github.com/cmarschner/octoview"
	"github.com/cmarschner/octoview/octree"
	"github.com/cmarschner/octoview/points"
)

// Example_paintAndDelete demonstrates the paint/delete/undo loop on an
// in-memory point buffer.
func Example_paintAndDelete() {
	buf := points.NewBuffer(3)
	buf.SetPoint(0, r3.Vector{X: 1, Y: 1, Z: 1}, 1, 0, 0)
	buf.SetPoint(1, r3.Vector{X: 1.2, Y: 1, Z: 1}, 0, 1, 0)
	buf.SetPoint(2, r3.Vector{X: 9, Y: 9, Z: 9}, 0, 0, 1)
	box := octree.Box{Max: r3.Vector{X: 10, Y: 10, Z: 10}}

	v, err := octoview.OpenBuffer(context.Background(), buf, box,
		octoview.WithBrushRadius(1.0),
	)
	if err != nil {
		log.Fatal(err)
	}

	// Sweep the brush over the two nearby points.
	v.BeginPaint()
	n := v.PaintAt(r3.Vector{X: 1.1, Y: 1, Z: 1})
	v.EndPaint()
	fmt.Println("selected:", n)

	if err := v.DeleteSelection(); err != nil {
		log.Fatal(err)
	}
	fmt.Println("live after delete:", v.Counts().LivePoints)

	if err := v.Undo(); err != nil {
		log.Fatal(err)
	}
	fmt.Println("live after undo:", v.Counts().LivePoints)

	// Output:
	// selected: 2
	// live after delete: 1
	// live after undo: 3
}
