package crawler

import (
	"fmt"
	"io"
	"sync"

	"github.com/PuerkitoBio/goquery"
)

// createDocument creates a goquery document from a reader
func createDocument(reader io.Reader) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return nil, fmt.Errorf("html parse: %w", err)
	}
	return doc, nil
}

// processNodes runs processor over every node in parallel. Results land in
// the slot of their node so the output keeps DOM order. A nil slot means the
// node produced nothing, including when the processor panicked.
func processNodes(selections *goquery.Selection, processor func(*goquery.Selection) *DealItem) []*DealItem {
	slots := make([]*DealItem, selections.Length())
	var wg sync.WaitGroup

	selections.Each(func(i int, s *goquery.Selection) {
		wg.Add(1)
		go func(i int, s *goquery.Selection) {
			defer wg.Done()
			defer func() {
				if recover() != nil {
					slots[i] = nil
				}
			}()

			slots[i] = processor(s)
		}(i, s)
	})

	wg.Wait()
	return slots
}
