package engine

import (
	"strings"
	"sync"
)

type trieNode struct {
	children map[byte]*trieNode
	isEnd    bool
}

func newTrieNode() *trieNode {
	return &trieNode{children: make(map[byte]*trieNode)}
}

// DomainTrie matches hosts against a set of domains. Domains are stored
// reversed so "evil.test" also covers "login.evil.test" but not "notevil.test".
type DomainTrie struct {
	root *trieNode
	lock sync.RWMutex
	size int
}

func NewDomainTrie() *DomainTrie {
	return &DomainTrie{root: newTrieNode()}
}

func normalize(domain string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(domain)), ".")
}

func (t *DomainTrie) Insert(domain string) {
	t.BulkInsert([]string{domain})
}

// BulkInsert takes the write lock once for the whole batch.
func (t *DomainTrie) BulkInsert(domains []string) {
	t.lock.Lock()
	defer t.lock.Unlock()

	for _, domain := range domains {
		domain = normalize(domain)
		if domain == "" {
			continue
		}
		node := t.root
		for i := len(domain) - 1; i >= 0; i-- {
			next := node.children[domain[i]]
			if next == nil {
				next = newTrieNode()
				node.children[domain[i]] = next
			}
			node = next
		}
		if !node.isEnd {
			node.isEnd = true
			t.size++
		}
	}
}

// Match reports whether host equals a stored domain or is a subdomain of one.
func (t *DomainTrie) Match(host string) bool {
	host = normalize(host)
	if host == "" {
		return false
	}

	t.lock.RLock()
	defer t.lock.RUnlock()

	node := t.root
	for i := len(host) - 1; i >= 0; i-- {
		// a stored domain ends right before a label boundary
		if node.isEnd && host[i] == '.' {
			return true
		}
		next, ok := node.children[host[i]]
		if !ok {
			return false
		}
		node = next
	}
	return node.isEnd
}

func (t *DomainTrie) Len() int {
	t.lock.RLock()
	defer t.lock.RUnlock()
	return t.size
}
