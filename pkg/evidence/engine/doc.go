// Package engine assembles the evidence pipeline.
//
// The engine is the single composition root: it takes a populated control
// registry and a running exporter, seals the registry, and builds one span
// factory per framework, all sharing one correlation tracker and one
// open-span tracker. Application code receives factories (or the engine
// itself) by injection at startup.
//
// Shutdown drains the exporter and runs the audit sweep: any span still
// OPEN is logged as leaked evidence. Leaked spans are never auto-closed,
// because a fabricated terminal status would be indistinguishable from
// real evidence.
package engine
