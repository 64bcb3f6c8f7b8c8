// Package extract parses the repeated per-line pet pattern out of feed
// message bodies and normalizes shorthand rate tokens into numeric values.
package extract
