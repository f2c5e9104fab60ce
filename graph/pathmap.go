package graph

import "github.com/beliefgraph/core/bid"

// PathMap is the per-network, bijective mapping between a relative path
// (optionally with a trailing "#anchor" section reference) and the BID of
// the node that currently lives there.
//
// A PathMap is owned by exactly one [Store] and is always accessed under
// the store's lock; it holds no lock of its own.
type PathMap struct {
	pathToBID map[string]bid.BID
	bidToPath map[bid.BID]string
}

func newPathMap() *PathMap {
	return &PathMap{
		pathToBID: make(map[string]bid.BID),
		bidToPath: make(map[bid.BID]string),
	}
}

// set records path as the home location of id, evicting any prior mapping
// in either direction so the map stays injective both ways.
func (p *PathMap) set(path string, id bid.BID) {
	if oldPath, ok := p.bidToPath[id]; ok && oldPath != path {
		delete(p.pathToBID, oldPath)
	}
	if oldBID, ok := p.pathToBID[path]; ok && oldBID != id {
		delete(p.bidToPath, oldBID)
	}
	p.pathToBID[path] = id
	p.bidToPath[id] = path
}

// remove evicts id's path-map entry, if any. Returns the removed path and
// true, or ("", false) if id had no entry.
func (p *PathMap) remove(id bid.BID) (string, bool) {
	path, ok := p.bidToPath[id]
	if !ok {
		return "", false
	}
	delete(p.bidToPath, id)
	delete(p.pathToBID, path)
	return path, true
}

// bidByPath resolves a path to the BID that currently owns it.
func (p *PathMap) bidByPath(path string) (bid.BID, bool) {
	id, ok := p.pathToBID[path]
	return id, ok
}

// pathByBID reports the path a node currently lives at.
func (p *PathMap) pathByBID(id bid.BID) (string, bool) {
	path, ok := p.bidToPath[id]
	return path, ok
}
