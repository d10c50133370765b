package pdfparse

import (
	"encoding/json"
	"testing"
)

const sampleStext = `{
  "pages": [
    {
      "blocks": [
        {
          "type": "text",
          "bbox": {"x": 56, "y": 70, "w": 200, "h": 30},
          "lines": [
            {
              "wmode": 0,
              "bbox": {"x": 56.8, "y": 70.2, "w": 180.5, "h": 14.0},
              "font": {"name": "Helvetica", "family": "Helvetica", "size": 12},
              "x": 56.8, "y": 81.1,
              "text": "Invoice 2024-001"
            },
            {
              "wmode": 0,
              "bbox": {"x": 56.8, "y": 88.0, "w": 60.0, "h": 14.0},
              "font": {"name": "Helvetica", "family": "Helvetica", "size": 10},
              "x": 56.8, "y": 99.0,
              "text": "  "
            }
          ]
        }
      ]
    },
    {
      "blocks": [
        {
          "type": "text",
          "bbox": {"x": 56, "y": 70, "w": 100, "h": 14},
          "lines": [
            {
              "wmode": 0,
              "bbox": {"x": 56.8, "y": 70.2, "w": 90.0, "h": 14.0},
              "font": {"name": "Times", "family": "Times", "size": 0},
              "x": 56.8, "y": 81.1,
              "text": "Page two"
            }
          ]
        }
      ]
    }
  ]
}`

func TestStextDocument_Parse(t *testing.T) {
	var doc stextDocument
	if err := json.Unmarshal([]byte(sampleStext), &doc); err != nil {
		t.Fatalf("Failed to parse sample: %v", err)
	}

	if len(doc.Pages) != 2 {
		t.Fatalf("Expected 2 pages, got %d", len(doc.Pages))
	}

	line := doc.Pages[0].Blocks[0].Lines[0]
	if line.Text != "Invoice 2024-001" {
		t.Errorf("Expected 'Invoice 2024-001', got %q", line.Text)
	}
	if line.BBox.X != 56.8 || line.BBox.W != 180.5 {
		t.Errorf("Unexpected bbox: %+v", line.BBox)
	}
	if line.Font.Name != "Helvetica" || line.Font.Size != 12 {
		t.Errorf("Unexpected font: %+v", line.Font)
	}
}

func TestStextDocument_ToFragments(t *testing.T) {
	var doc stextDocument
	if err := json.Unmarshal([]byte(sampleStext), &doc); err != nil {
		t.Fatalf("Failed to parse sample: %v", err)
	}

	fragments := fragmentsFromStext(doc)

	// The whitespace-only line is dropped.
	if len(fragments) != 2 {
		t.Fatalf("Expected 2 fragments, got %d", len(fragments))
	}

	first := fragments[0]
	if first.X0 != 56.8 || first.Y0 != 70.2 {
		t.Errorf("Unexpected origin: %v, %v", first.X0, first.Y0)
	}
	if first.X1 != 56.8+180.5 || first.Y1 != 70.2+14.0 {
		t.Errorf("Unexpected far corner: %v, %v", first.X1, first.Y1)
	}
	if first.PageIndex != 0 {
		t.Errorf("Expected page 0, got %d", first.PageIndex)
	}
	if first.FontSize == nil || *first.FontSize != 12 {
		t.Errorf("Expected font size 12, got %v", first.FontSize)
	}

	second := fragments[1]
	if second.PageIndex != 1 {
		t.Errorf("Expected page 1, got %d", second.PageIndex)
	}
	// A zero font size means unknown, not size zero.
	if second.FontSize != nil {
		t.Errorf("Expected nil font size, got %v", *second.FontSize)
	}
}
