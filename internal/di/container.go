// Package di wires the rentd services from the configuration.
package di

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrServiceNotFound is returned for a name with neither a service nor a
// builder.
var ErrServiceNotFound = errors.New("service not found")

// Container is the dependency injection container.
// It manages service registration and resolution.
type Container struct {
	mu       sync.RWMutex
	services map[string]interface{}
	builders map[string]Builder

	// built lists built services in build order, for Close.
	built []string
}

// Builder is a function that creates a service instance.
type Builder func(c *Container) (interface{}, error)

// New creates a new dependency injection container.
func New() *Container {
	return &Container{
		services: make(map[string]interface{}),
		builders: make(map[string]Builder),
	}
}

// Register registers a service instance. The container does not close it.
func (c *Container) Register(name string, service interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.services[name] = service
}

// RegisterBuilder registers a builder function for lazy instantiation.
func (c *Container) RegisterBuilder(name string, builder Builder) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.builders[name] = builder
}

// Get retrieves a service by name, building it on first use. Builders may
// Get their own dependencies.
func (c *Container) Get(name string) (interface{}, error) {
	c.mu.RLock()
	service, exists := c.services[name]
	builder, hasBuilder := c.builders[name]
	c.mu.RUnlock()

	if exists {
		return service, nil
	}
	if !hasBuilder {
		return nil, fmt.Errorf("%w: %s", ErrServiceNotFound, name)
	}

	service, err := builder(c)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s: %w", name, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// Another caller built it first.
	if existing, exists := c.services[name]; exists {
		closeService(service)
		return existing, nil
	}
	c.services[name] = service
	c.built = append(c.built, name)
	return service, nil
}

// Has checks if a service is registered.
func (c *Container) Has(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, exists := c.services[name]
	if exists {
		return true
	}
	_, exists = c.builders[name]
	return exists
}

// ServiceNames returns all registered service names, sorted.
func (c *Container) ServiceNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make(map[string]bool)
	for name := range c.services {
		names[name] = true
	}
	for name := range c.builders {
		names[name] = true
	}

	result := make([]string, 0, len(names))
	for name := range names {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

// Close closes the built services in reverse build order and forgets them.
// Builders stay registered.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for i := len(c.built) - 1; i >= 0; i-- {
		name := c.built[i]
		if err := closeService(c.services[name]); err != nil {
			errs = append(errs, fmt.Errorf("failed to close %s: %w", name, err))
		}
		delete(c.services, name)
	}
	c.built = nil
	return errors.Join(errs...)
}

func closeService(service interface{}) error {
	if closer, ok := service.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}

// Service names constants for type-safe access.
const (
	ServiceConfig    = "config"
	ServiceNodeDB    = "node_db"
	ServiceTrieStore = "triestore"
	ServiceReceipts  = "receipts"
)
