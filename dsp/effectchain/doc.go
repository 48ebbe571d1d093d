// Package effectchain turns presets into running effect chains.
//
// A [Preset] is an immutable, ordered list of stages, each naming an
// effect kind with typed parameters. Presets come from the built-in
// [Library] or from a JSON/YAML descriptor ([LoadDescriptor]). The
// compile-time registry maps every kind to its constructor and to the flat
// parameter keys used by descriptors.
//
// An [Engine] owns the live [Chain]. Control calls build a new chain off
// the audio path and publish it with one atomic pointer swap; Process only
// loads that pointer, so it never locks, allocates or observes a partially
// applied preset. Unknown effect kinds and preset names are logged with
// log/slog and skipped.
package effectchain
