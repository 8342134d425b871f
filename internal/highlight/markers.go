package highlight

// Class names and attributes written into the document. The navigation
// controller and the hover endpoints look markers up by these.
const (
	ClassMarker    = "vocab-highlight"
	ClassContainer = "vocab-highlight-container"
	ClassCurrent   = "vocab-highlight-current"

	AttrTerm        = "data-vocab"
	AttrHighlightID = "data-highlight-id"

	StylesheetID = "vocab-highlight-styles"
)

const stylesheet = `
    .vocab-highlight {
      background-color: #ffeb3b !important;
      color: #000 !important;
      padding: 1px 2px !important;
      border-radius: 2px !important;
      font-weight: bold !important;
      cursor: pointer !important;
      transition: all 0.2s ease !important;
      outline: none !important;
    }

    .vocab-highlight:hover {
      background-color: #ffc107 !important;
      box-shadow: 0 1px 3px rgba(0,0,0,0.3) !important;
    }

    .vocab-highlight-current {
      background-color: #ff5722 !important;
      color: white !important;
      box-shadow: 0 2px 8px rgba(255, 87, 34, 0.5) !important;
      border: 2px solid #d84315 !important;
      animation: vocab-pulse 1s ease-in-out !important;
    }

    @keyframes vocab-pulse {
      0% { transform: scale(1); }
      50% { transform: scale(1.1); }
      100% { transform: scale(1); }
    }

    .vocab-highlight-container {
      display: inline !important;
    }
`
