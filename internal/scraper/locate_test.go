package scraper

import (
	"testing"

	"dividend-backend/pkg/htmlutil"

	"github.com/stretchr/testify/require"
)

var historyMarker = Marker{Name: "data-test", Value: "historical-prices"}

func parse(t testing.TB, contents string) htmlutil.Document {
	doc, err := htmlutil.ParseString(contents)
	require.NoError(t, err)
	return doc
}

func TestLocateDividendTable(t *testing.T) {
	doc := parse(t, `<html><body>
		<table data-test="other"><tbody><tr><td>nope</td></tr></tbody></table>
		<table data-test="historical-prices">
			<thead><tr><th>Date</th></tr></thead>
			<tbody>
				<tr><td>Mar 15, 2021</td><td>1.25 Dividend</td></tr>
				<tr><td>Mar 16, 2021</td><td>2:1 Stock Split</td></tr>
			</tbody>
		</table>
		<table data-test="historical-prices"><tbody><tr><td>second</td></tr></tbody></table>
	</body></html>`)

	body, err := LocateDividendTable(doc, historyMarker)
	require.NoError(t, err)
	require.Equal(t, "tbody", body.Tag())

	rows := body.Children()
	require.Len(t, rows, 2)
	require.Equal(t, "Mar 15, 2021 1.25 Dividend", rows[0].Text())
	require.Equal(t, "Mar 16, 2021 2:1 Stock Split", rows[1].Text())
}

func TestLocateDividendTableMissing(t *testing.T) {
	testCases := []struct {
		name string
		page string
	}{
		{
			name: "no marker",
			page: `<html><body><table data-test="other"><tbody><tr><td>x</td></tr></tbody></table></body></html>`,
		},
		{
			name: "marker value differs",
			page: `<html><body><table data-test="historical-prices-v2"><tbody></tbody></table></body></html>`,
		},
		{
			name: "marker without body",
			page: `<html><body><div data-test="historical-prices"><span>empty</span></div></body></html>`,
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			_, err := LocateDividendTable(parse(t, test.page), historyMarker)
			require.ErrorIs(t, err, ErrTableNotFound)
		})
	}
}
