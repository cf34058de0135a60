// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package journal

import (
	"context"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"k8s.io/apimachinery/pkg/util/wait"
)

// Recorder defines an interface for recording executed agent commands
type Recorder interface {
	Record(command string, exitCode int, output string, duration time.Duration)
}

// Lister defines an interface for listing recorded commands
type Lister interface {
	List() []Entry
}

type Entry struct {
	Command  string
	ExitCode int
	Output   string
	Duration time.Duration
	Time     time.Time
}

// Options defines options to initialize the journal
type Options struct {
	MaxEntries     int
	TTL            time.Duration
	ResyncInterval time.Duration
	// MaxOutputSize truncates recorded output, 0 keeps it whole.
	MaxOutputSize int
}

func (o *Options) Defaults() {
	if o.MaxEntries <= 0 {
		o.MaxEntries = 256
	}

	if o.ResyncInterval <= 0 {
		o.ResyncInterval = time.Minute
	}
}

// Journal implements Recorder and Lister as a fixed size ring of commands.
// Entries older than the TTL are dropped by Start; a zero TTL keeps entries
// until they are overwritten.
type Journal struct {
	maxEntries     int
	maxOutputSize  int
	ttl            time.Duration
	resyncInterval time.Duration

	mutex   sync.Mutex
	entries []Entry
	head    int // index of the oldest entry
	count   int

	log logr.Logger
	now func() time.Time
}

func New(log logr.Logger, opts Options) *Journal {
	opts.Defaults()
	return &Journal{
		maxEntries:     opts.MaxEntries,
		maxOutputSize:  opts.MaxOutputSize,
		ttl:            opts.TTL,
		resyncInterval: opts.ResyncInterval,
		entries:        make([]Entry, opts.MaxEntries),
		log:            log,
		now:            time.Now,
	}
}

func (j *Journal) Record(command string, exitCode int, output string, duration time.Duration) {
	if j.maxOutputSize > 0 && len(output) > j.maxOutputSize {
		output = output[:j.maxOutputSize]
	}

	j.mutex.Lock()
	defer j.mutex.Unlock()

	index := (j.head + j.count) % j.maxEntries
	if j.count == j.maxEntries {
		j.log.V(3).Info("Overriding journal entry", "command", j.entries[j.head].Command)
		j.head = (j.head + 1) % j.maxEntries
	} else {
		j.count++
	}

	j.entries[index] = Entry{
		Command:  command,
		ExitCode: exitCode,
		Output:   output,
		Duration: duration,
		Time:     j.now(),
	}
}

func (j *Journal) removeExpired() {
	if j.ttl <= 0 {
		return
	}

	j.mutex.Lock()
	defer j.mutex.Unlock()

	now := j.now()
	for j.count > 0 {
		if j.entries[j.head].Time.Add(j.ttl).After(now) {
			break
		}
		j.entries[j.head] = Entry{}
		j.head = (j.head + 1) % j.maxEntries
		j.count--
	}
}

// Start runs the TTL expiration until ctx is done.
func (j *Journal) Start(ctx context.Context) {
	wait.UntilWithContext(ctx, func(ctx context.Context) {
		j.removeExpired()
	}, j.resyncInterval)
}

// List returns the entries oldest first.
func (j *Journal) List() []Entry {
	j.mutex.Lock()
	defer j.mutex.Unlock()

	result := make([]Entry, 0, j.count)
	for i := 0; i < j.count; i++ {
		result = append(result, j.entries[(j.head+i)%j.maxEntries])
	}
	return result
}
