// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package graph

import "github.com/grailbio/abyssgo/kmer"

// Observer is notified whenever a live vertex's edges change. Erosion is
// the only pass that registers one (Design Note: "Observer callback for
// erosion"), grounded on Assembly/ErodeAlgorithm.h's single free-function
// hook (erosionObserver).
type Observer interface {
	OnVertexChanged(k kmer.Kmer, data *VertexData)
}

// ObserverFunc adapts a plain function to the Observer interface.
type ObserverFunc func(k kmer.Kmer, data *VertexData)

// OnVertexChanged implements Observer.
func (f ObserverFunc) OnVertexChanged(k kmer.Kmer, data *VertexData) { f(k, data) }
