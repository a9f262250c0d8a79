// cmd/apiserver is the main entrypoint for the adminapi HTTP control
// plane: it builds a cluster of replicas from flags, wires up the
// Coordinator, and serves the operator-facing HTTP API over it.
//
// Example:
//
//	./apiserver --addr :8090 --jwt-secret change-me --api-key-hash '$2a$...'
package main

import (
	"context"
	"flag"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"filestore-consensus/internal/adminapi"
	"filestore-consensus/internal/clock"
	"filestore-consensus/internal/coordinator"
	"filestore-consensus/internal/replica"
)

func main() {
	addr := flag.String("addr", ":8090", "listen address (host:port)")
	jwtSecret := flag.String("jwt-secret", "change-me", "HMAC secret used to sign bearer tokens")
	apiKeyHash := flag.String("api-key-hash", "", "bcrypt hash of the operator API key (see filestorectl hash-key)")
	tokenTTL := flag.Duration("token-ttl", time.Hour, "bearer token lifetime")
	replicaSpec := flag.String("replicas", "1:10:0.1,2:7:0.2,3:2:0.4",
		"comma-separated id:weight:failure_prob triples")
	flag.Parse()

	if *apiKeyHash == "" {
		log.Fatalf("FATAL: --api-key-hash is required")
	}

	replicas, err := buildReplicas(*replicaSpec)
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}

	coord := coordinator.New(replicas, clock.System{}, log.Default())

	router := adminapi.NewRouter(coord, adminapi.Config{
		JWTSecret:  *jwtSecret,
		TokenTTL:   int64((*tokenTTL).Seconds()),
		APIKeyHash: *apiKeyHash,
	}, log.Default())

	srv := &http.Server{
		Addr:         *addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("adminapi listening on %s (%d replicas)", *addr, len(replicas))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down adminapi")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}
}

// buildReplicas parses "id:weight:failure_prob" triples into Replica
// instances, each with its own seeded random source.
func buildReplicas(spec string) ([]*replica.Replica, error) {
	var out []*replica.Replica
	for _, entry := range strings.Split(spec, ",") {
		parts := strings.Split(entry, ":")
		if len(parts) != 3 {
			return nil, errInvalidReplicaSpec(entry)
		}
		id, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil, errInvalidReplicaSpec(entry)
		}
		weight, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, errInvalidReplicaSpec(entry)
		}
		failureProb, err := strconv.ParseFloat(parts[2], 64)
		if err != nil {
			return nil, errInvalidReplicaSpec(entry)
		}
		out = append(out, replica.New(replica.Config{
			ID: id, Weight: weight, FailureProb: failureProb,
			RecoveryDelayMin: 10, RecoveryDelayMax: 30,
		}, rand.New(rand.NewSource(int64(id))), nil))
	}
	return out, nil
}

func errInvalidReplicaSpec(entry string) error {
	return &replicaSpecError{entry: entry}
}

type replicaSpecError struct{ entry string }

func (e *replicaSpecError) Error() string {
	return "invalid replica spec " + strconv.Quote(e.entry) + ": expected id:weight:failure_prob"
}
