// Package postgres provides a Postgres implementation of driven.PlaybookStore
// backed by the pgvector extension.
//
// Embeddings live in a vector(n) column and similarity search runs in the
// database using the cosine distance operator (<=>). The schema is created on
// first connect; the vector dimension is fixed at that point and must match
// the configured embedding model.
package postgres
