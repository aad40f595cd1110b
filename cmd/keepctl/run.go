package main

import (
	"context"
	"fmt"
	"io"

	"github.com/keepstack/keepstack/client"
	"github.com/keepstack/keepstack/internal/model"
)

func runSearch(apiURL, query string, limit int, out io.Writer) error {
	if query == "" {
		return fmt.Errorf("query cannot be empty")
	}
	c := client.New(apiURL)
	res, err := c.Search(context.Background(), model.SearchRequest{Query: query, Limit: limit})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%d results for %q\n", res.Total, res.Query)
	for i, hit := range res.Hits {
		fmt.Fprintf(out, "%2d. [%.3f] %s  (%s)\n", i+1, hit.Score, hit.Item.Title, hit.Item.ID)
	}
	return nil
}

func runItemsList(apiURL string, out io.Writer) error {
	c := client.New(apiURL)
	items, err := c.ListItems(context.Background(), model.ListOptions{SortBy: "createdAt", SortOrder: "desc"})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%d items\n", len(items))
	for _, item := range items {
		fmt.Fprintf(out, "%s  %-10s  %-10s  %s\n", item.ID, item.Type, item.Status, item.Title)
	}
	return nil
}

func runItemGet(apiURL, id string, out io.Writer) error {
	c := client.New(apiURL)
	item, err := c.GetItem(context.Background(), id)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Title:   %s\n", item.Title)
	fmt.Fprintf(out, "URL:     %s\n", item.URL)
	fmt.Fprintf(out, "Type:    %s\n", item.Type)
	fmt.Fprintf(out, "Status:  %s\n", item.Status)
	fmt.Fprintf(out, "Views:   %d\n", item.ViewCount)
	if item.Summary != "" {
		fmt.Fprintf(out, "Summary: %s\n", item.Summary)
	}
	if len(item.Tags) > 0 {
		fmt.Fprintf(out, "Tags:    %v\n", item.Tags)
	}
	return nil
}

func runItemDelete(apiURL, id string, out io.Writer) error {
	c := client.New(apiURL)
	res, err := c.DeleteItem(context.Background(), id)
	if err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("partial delete: %v", res.Errors)
	}
	fmt.Fprintf(out, "deleted %s\n", id)
	return nil
}

func runBackupCreate(apiURL string, includeContent bool, out io.Writer) error {
	c := client.New(apiURL)
	ref, err := c.CreateBackup(context.Background(), includeContent)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "created %s\n", ref.ID)
	return nil
}

func runBackupList(apiURL string, out io.Writer) error {
	c := client.New(apiURL)
	infos, err := c.ListBackups(context.Background())
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%d backups\n", len(infos))
	for _, info := range infos {
		body := ""
		if info.IncludesBody {
			body = "  +content"
		}
		fmt.Fprintf(out, "%s  %s%s\n", info.ID, info.Timestamp.Format("2006-01-02 15:04:05"), body)
	}
	return nil
}

func runBackupRestore(apiURL, id string, out io.Writer) error {
	c := client.New(apiURL)
	if err := c.RestoreBackup(context.Background(), id); err != nil {
		return err
	}
	fmt.Fprintf(out, "restored %s\n", id)
	return nil
}

func runAnalytics(apiURL string, out io.Writer) error {
	c := client.New(apiURL)
	a, err := c.SearchAnalytics(context.Background())
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Total searches:   %d\n", a.TotalSearches)
	fmt.Fprintf(out, "Distinct queries: %d\n", a.DistinctQueries)
	fmt.Fprintf(out, "Avg result count: %.1f\n", a.AvgResultCount)
	for _, tc := range a.TopTokens {
		fmt.Fprintf(out, "  %-20s %d\n", tc.Token, tc.Count)
	}
	return nil
}
