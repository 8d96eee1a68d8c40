// Package analytics is the portfolio analytics core: exposure aggregation,
// return synthesis, summary statistics, correlation and factor regression.
//
// Every function is a pure transform of its inputs. Nothing here performs
// I/O, retains state between calls or mutates its arguments, so the same
// inputs always give bit-identical outputs.
package analytics
