// Package pkg provides the core libraries of exorcism, a heuristic minimizer
// for exclusive-or sums of products (ESOPs).
//
// # Overview
//
// An ESOP describes a multi-output Boolean function as the XOR of product
// terms. exorcism reads such a cover, repeatedly rewrites pairs of cubes that
// differ in few positions (the ExorLink operation), and writes back an
// equivalent cover with fewer cubes and literals. The pkg directory is
// organized into four areas:
//
//  1. [esop] - The minimization engine (cube codec, store, rewrite tables)
//  2. [cover] - Covers and their PLA and JSON formats
//  3. [verify] - Equivalence checking (exhaustive, BDD, SAT)
//  4. [pipeline] - Orchestration (parse → minimize → verify → encode)
//
// Supporting packages are [cache], [render], [observability], [errors],
// [perm] and [buildinfo].
//
// # Architecture
//
// The typical data flow:
//
//	PLA / JSON input
//	       ↓
//	  [cover] package (parse + validate)
//	       ↓
//	  [esop] package (load cubes, run the pass schedule, extract)
//	       ↓
//	  [verify] package (optional equivalence check)
//	       ↓
//	  PLA / JSON output
//
// # Quick Start
//
// Minimize a cover read from a PLA file:
//
//	import (
//	    "os"
//	    "github.com/matzehuels/exorcism/pkg/cover"
//	    "github.com/matzehuels/exorcism/pkg/esop"
//	)
//
//	f, _ := os.Open("adder.pla")
//	c, _ := cover.ReadPLA(f)
//
//	s, _ := esop.New(esop.Config{
//	    Inputs:  c.Inputs,
//	    Outputs: c.Outputs,
//	    Quality: esop.DefaultQuality,
//	})
//	res, _ := s.Run(c)
//
//	cover.WritePLA(os.Stdout, res.Cover)
//
// Most callers go through [pipeline.Runner] instead, which adds result
// caching and verification on top of the engine.
//
// # Main Packages
//
// [esop] - The engine. A [esop.Session] owns one configuration and can run
// any number of covers. Cubes are packed two bits per variable into machine
// words ([esop/cube]), kept in a slot arena with per-distance pair queues
// ([esop/store]), and rewritten using precomputed grouping tables
// ([esop/link]).
//
// [cover] - The exchange type between all packages, with readers and writers
// for Espresso PLA files (type esop) and a JSON document form.
//
// [verify] - Checks that two covers compute the same function. Small inputs
// are enumerated; larger ones are compared as BDDs or with a SAT miter.
//
// [pipeline] - Ties parsing, minimization, verification and encoding
// together, keyed by content hash so repeated runs hit the [cache].
//
// [render] - Draws the distance graph of a cover with Graphviz.
//
// [esop]: https://pkg.go.dev/github.com/matzehuels/exorcism/pkg/esop
// [esop/cube]: https://pkg.go.dev/github.com/matzehuels/exorcism/pkg/esop/cube
// [esop/store]: https://pkg.go.dev/github.com/matzehuels/exorcism/pkg/esop/store
// [esop/link]: https://pkg.go.dev/github.com/matzehuels/exorcism/pkg/esop/link
// [cover]: https://pkg.go.dev/github.com/matzehuels/exorcism/pkg/cover
// [verify]: https://pkg.go.dev/github.com/matzehuels/exorcism/pkg/verify
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/exorcism/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/exorcism/pkg/cache
// [render]: https://pkg.go.dev/github.com/matzehuels/exorcism/pkg/render
// [observability]: https://pkg.go.dev/github.com/matzehuels/exorcism/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/exorcism/pkg/errors
// [perm]: https://pkg.go.dev/github.com/matzehuels/exorcism/pkg/perm
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/exorcism/pkg/buildinfo
package pkg
