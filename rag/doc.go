// Package rag implements the retrieval side of the RAG agent: a recursive
// character splitter, an embedded chunk index with cosine top-k search,
// persistence of built indexes to a kv.Store, and the retrieve tool.
//
// Typical flow:
//
//	text, _ := rag.LoadDocument("report.txt")
//	idx, _ := rag.Build(ctx, text, embedder)
//	hits, _ := idx.Search(ctx, "How did tech stocks perform?", 5)
package rag
