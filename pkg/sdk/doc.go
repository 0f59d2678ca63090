// Package civiccompass embeds the civic code search engine in a Go program.
//
// The client loads the corpus index from a site directory once and answers queries in
// process. An optional Redis store shares decoded chunk files between processes.
//
//	client, _ := civiccompass.Open(ctx, civiccompass.WithRoot("./site"))
//	defer client.Close()
//
//	res, _ := client.Search(ctx, civiccompass.Query{Text: "trench backfill compaction"})
//	for _, h := range res.Hits {
//	    fmt.Println(h.Location, h.Anchor, h.Heading)
//	}
//
//	sep, _ := client.Separation(ctx, "GAS", "WATER", civiccompass.Horizontal)
package civiccompass
