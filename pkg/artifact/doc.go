// Package artifact stores generated package artifacts on the local
// filesystem and hands out download URLs for them.
package artifact
