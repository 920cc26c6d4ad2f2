// Package statistics provides synchronized thread-safe statistics
// counters for the key-value store and its HTTP front-end.
package statistics

import (
	"sync/atomic"
	"time"
)

type StoreSync struct {
	handledOps    int64
	lookups       int64
	hits          int64
	misses        int64
	puts          int64
	overwrites    int64
	deletes       int64
	storedBytes   int64
	freedBytes    int64
	highestOpTime int64
	averageOpTime int64
}

func NewStoreSync() *StoreSync {
	return &StoreSync{}
}

// UpdateLookup records a key lookup.
func (s *StoreSync) UpdateLookup(hit bool, opTime time.Duration) {
	s.updateOpTime(opTime)
	atomic.AddInt64(&s.lookups, 1)
	if hit {
		atomic.AddInt64(&s.hits, 1)
		return
	}
	atomic.AddInt64(&s.misses, 1)
}

// UpdatePut records a key-value association.
// freedBytes is only accounted for if overwrite is true.
func (s *StoreSync) UpdatePut(
	storedBytes, freedBytes int,
	overwrite bool,
	opTime time.Duration,
) {
	s.updateOpTime(opTime)
	atomic.AddInt64(&s.puts, 1)
	atomic.AddInt64(&s.storedBytes, int64(storedBytes))
	if overwrite {
		atomic.AddInt64(&s.overwrites, 1)
		atomic.AddInt64(&s.freedBytes, int64(freedBytes))
	}
}

// UpdateDelete records a successful key removal.
func (s *StoreSync) UpdateDelete(freedBytes int, opTime time.Duration) {
	s.updateOpTime(opTime)
	atomic.AddInt64(&s.deletes, 1)
	atomic.AddInt64(&s.freedBytes, int64(freedBytes))
}

func (s *StoreSync) updateOpTime(opTime time.Duration) {
	handledOps := atomic.AddInt64(&s.handledOps, 1)

	// Average operation time
	curAvgOpTime := atomic.LoadInt64(&s.averageOpTime)
	atomic.AddInt64(
		&s.averageOpTime,
		(int64(opTime)-curAvgOpTime)/handledOps,
	)

	// Highest operation time
	if int64(opTime) > atomic.LoadInt64(&s.highestOpTime) {
		atomic.StoreInt64(&s.highestOpTime, int64(opTime))
	}
}

func (s *StoreSync) GetHandledOps() int64 {
	return atomic.LoadInt64(&s.handledOps)
}

func (s *StoreSync) GetLookups() int64 {
	return atomic.LoadInt64(&s.lookups)
}

func (s *StoreSync) GetHits() int64 {
	return atomic.LoadInt64(&s.hits)
}

func (s *StoreSync) GetMisses() int64 {
	return atomic.LoadInt64(&s.misses)
}

func (s *StoreSync) GetPuts() int64 {
	return atomic.LoadInt64(&s.puts)
}

func (s *StoreSync) GetOverwrites() int64 {
	return atomic.LoadInt64(&s.overwrites)
}

func (s *StoreSync) GetDeletes() int64 {
	return atomic.LoadInt64(&s.deletes)
}

func (s *StoreSync) GetStoredBytes() int64 {
	return atomic.LoadInt64(&s.storedBytes)
}

func (s *StoreSync) GetFreedBytes() int64 {
	return atomic.LoadInt64(&s.freedBytes)
}

func (s *StoreSync) GetHighestOpTime() int64 {
	return atomic.LoadInt64(&s.highestOpTime)
}

func (s *StoreSync) GetAverageOpTime() int64 {
	return atomic.LoadInt64(&s.averageOpTime)
}

type ServerSync struct {
	handledRequests     int64
	rejectedRequests    int64
	servedRequests      int64
	receivedBytes       int64
	sentBytes           int64
	highestResponseTime int64
	averageResponseTime int64
}

func NewServerSync() *ServerSync {
	return &ServerSync{}
}

func (s *ServerSync) Update(
	receivedBytes, sentBytes int,
	requestRejected bool,
	responseTime time.Duration,
) {
	handledReqs := atomic.AddInt64(&s.handledRequests, 1)
	atomic.AddInt64(&s.receivedBytes, int64(receivedBytes))

	// Average response time
	curAvgResponseTime := atomic.LoadInt64(&s.averageResponseTime)
	atomic.AddInt64(
		&s.averageResponseTime,
		(int64(responseTime)-curAvgResponseTime)/handledReqs,
	)

	// Highest response time
	if int64(responseTime) > atomic.LoadInt64(&s.highestResponseTime) {
		atomic.StoreInt64(&s.highestResponseTime, int64(responseTime))
	}

	if requestRejected {
		atomic.AddInt64(&s.rejectedRequests, 1)
		return
	}
	atomic.AddInt64(&s.sentBytes, int64(sentBytes))
	atomic.AddInt64(&s.servedRequests, 1)
}

func (s *ServerSync) GetHandledRequests() int64 {
	return atomic.LoadInt64(&s.handledRequests)
}

func (s *ServerSync) GetRejectedRequests() int64 {
	return atomic.LoadInt64(&s.rejectedRequests)
}

func (s *ServerSync) GetServedRequests() int64 {
	return atomic.LoadInt64(&s.servedRequests)
}

func (s *ServerSync) GetReceivedBytes() int64 {
	return atomic.LoadInt64(&s.receivedBytes)
}

func (s *ServerSync) GetSentBytes() int64 {
	return atomic.LoadInt64(&s.sentBytes)
}

func (s *ServerSync) GetHighestResponseTime() int64 {
	return atomic.LoadInt64(&s.highestResponseTime)
}

func (s *ServerSync) GetAverageResponseTime() int64 {
	return atomic.LoadInt64(&s.averageResponseTime)
}
