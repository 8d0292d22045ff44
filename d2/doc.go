// Package d2 is the 2D batching engine.
//
// Drawing tools (Pen, Paint, Sprite, Scribe) expand shapes and text into
// vertices through a Template and append them to a DrawBuilder. A builder
// holds one vertex layout; it splits its geometry into commands only when
// the pipeline state or uniform changes.
//
// A Pool multiplexes builders by Key and remembers the order of every
// append across all of them. Flushing a pool emits one DrawCommand per run
// of consecutive appends with the same key, so overlapping content keeps
// its submission order while adjacent content of the same kind is batched:
//
//	pool := d2.NewPool()
//	shapes := d2.NewKey(d2.ColorLayout, d2.Triangles, d2.BlendAlpha, d2.DefaultColorUniform())
//	b, _ := d2.BuilderFor[d2.ColorVertex](pool, shapes)
//	d2.FillRect(b, d2.Solid(d2.White), d2.Box(0, 0, 100, 100))
//	err := pool.Flush(renderer)
//
// Builders and pools are not safe for concurrent use. They are meant to be
// owned by the render loop and reused every frame.
package d2
