// Package crm provides the customer directory used for personalization,
// phone lookup, address verification and credit data.
package crm

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/loanmesh/core"
)

// Directory is an in-memory core.CustomerDirectory. It is safe for
// concurrent access and hands out copies of stored profiles.
type Directory struct {
	mu        sync.RWMutex
	customers map[string]core.CustomerProfile
}

var _ core.CustomerDirectory = (*Directory)(nil)

// NewDirectory builds a directory from profiles. Ids are matched
// case-insensitively.
func NewDirectory(profiles ...core.CustomerProfile) *Directory {
	d := &Directory{customers: make(map[string]core.CustomerProfile, len(profiles))}
	for _, p := range profiles {
		d.customers[strings.ToUpper(p.ID)] = p
	}
	return d
}

// NewDemoDirectory returns a directory seeded with DemoCustomers.
func NewDemoDirectory() *Directory { return NewDirectory(DemoCustomers...) }

type customerFile struct {
	Customers []core.CustomerProfile `yaml:"customers"`
}

// LoadFile reads a YAML customer book:
//
//	customers:
//	  - id: CUST001
//	    name: Rahul Sharma
//	    credit_score: 780
func LoadFile(path string) (*Directory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read customer file: %w", err)
	}
	var f customerFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse customer file %s: %w", path, err)
	}
	for i, c := range f.Customers {
		if c.ID == "" {
			return nil, fmt.Errorf("customer file %s: entry %d has no id", path, i)
		}
	}
	return NewDirectory(f.Customers...), nil
}

// Put adds or replaces a profile.
func (d *Directory) Put(p core.CustomerProfile) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.customers[strings.ToUpper(p.ID)] = p
}

// IDs returns the known customer ids in sorted order.
func (d *Directory) IDs() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ids := make([]string, 0, len(d.customers))
	for id := range d.customers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// LookupCustomer implements core.CustomerDirectory.
func (d *Directory) LookupCustomer(_ context.Context, id string) (*core.CustomerProfile, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.customers[strings.ToUpper(strings.TrimSpace(id))]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrCustomerNotFound, id)
	}
	return &p, nil
}

var pincodePattern = regexp.MustCompile(`\b\d{6}\b`)

// VerifyAddress implements core.CustomerDirectory. The address matches when
// the city on file is mentioned and any pincode given equals the one on file.
func (d *Directory) VerifyAddress(ctx context.Context, id, text string) (core.AddressCheck, error) {
	p, err := d.LookupCustomer(ctx, id)
	if err != nil {
		return core.AddressCheck{}, err
	}

	provided := strings.ToLower(text)
	var res core.AddressCheck

	if p.City != "" && !strings.Contains(provided, strings.ToLower(p.City)) {
		res.Mismatches = append(res.Mismatches, core.Mismatch{Field: "city", Provided: strings.TrimSpace(text), OnFile: p.City})
	}
	if pin := pincodePattern.FindString(text); pin != "" && p.Pincode != "" && pin != p.Pincode {
		res.Mismatches = append(res.Mismatches, core.Mismatch{Field: "pincode", Provided: pin, OnFile: p.Pincode})
	}

	res.Verified = len(res.Mismatches) == 0
	return res, nil
}
