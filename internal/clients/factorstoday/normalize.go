package factorstoday

import "strings"

// NormalizeLoadings maps the shapes the loadings endpoint has been seen to
// return onto rows keyed by upper-case ticker. In order of preference:
//
//   - a bare array of rows without symbol fields, for a single ticker
//   - an object with a symbolFactors map of ticker to rows
//   - an object keyed by ticker (upper or lower case)
//   - rows carrying symbol or ticker fields, either bare or under data or
//     factors
//
// Only requested tickers are returned.
func NormalizeLoadings(payload interface{}, tickers []string) map[string][]Row {
	if arr, ok := payload.([]interface{}); ok && len(arr) > 0 && len(tickers) == 1 {
		if first, ok := arr[0].(map[string]interface{}); !ok || (!truthy(first["symbol"]) && !truthy(first["ticker"])) {
			return map[string][]Row{tickers[0]: asRows(arr)}
		}
	}

	if obj, ok := payload.(map[string]interface{}); ok {
		if nestedRaw, ok := obj["symbolFactors"].(map[string]interface{}); ok {
			nested := make(map[string][]Row)
			for k, v := range nestedRaw {
				if arr, ok := v.([]interface{}); ok {
					nested[strings.ToUpper(k)] = asRows(arr)
				}
			}
			if len(nested) > 0 {
				return nested
			}
		}

		keyed := make(map[string][]Row)
		for _, t := range tickers {
			candidate, ok := obj[t].([]interface{})
			if !ok {
				candidate, ok = obj[strings.ToLower(t)].([]interface{})
			}
			if ok {
				keyed[t] = asRows(candidate)
			}
		}
		if len(keyed) > 0 {
			return keyed
		}
	}

	bySymbol := make(map[string][]Row)
	for _, r := range asRows(rowList(payload, "data", "factors")) {
		symbol := strings.ToUpper(stringField(r, "symbol"))
		if symbol == "" {
			symbol = strings.ToUpper(stringField(r, "ticker"))
		}
		if symbol == "" {
			continue
		}
		r["symbol"] = symbol
		bySymbol[symbol] = append(bySymbol[symbol], r)
	}

	filtered := make(map[string][]Row)
	for _, t := range tickers {
		if rows, ok := bySymbol[t]; ok {
			filtered[t] = rows
		}
	}
	return filtered
}

// NormalizeCatalog accepts a bare array or one under data or catalog.
func NormalizeCatalog(payload interface{}) []Row {
	return asRows(rowList(payload, "data", "catalog"))
}

func rowList(payload interface{}, keys ...string) []interface{} {
	if arr, ok := payload.([]interface{}); ok {
		return arr
	}
	if obj, ok := payload.(map[string]interface{}); ok {
		for _, k := range keys {
			if arr, ok := obj[k].([]interface{}); ok {
				return arr
			}
		}
	}
	return nil
}

// asRows copies object elements; non-objects become empty rows.
func asRows(arr []interface{}) []Row {
	out := make([]Row, 0, len(arr))
	for _, v := range arr {
		row := Row{}
		if m, ok := v.(map[string]interface{}); ok {
			for k, val := range m {
				row[k] = val
			}
		}
		out = append(out, row)
	}
	return out
}

func stringField(r Row, key string) string {
	switch v := r[key].(type) {
	case string:
		return v
	case nil:
		return ""
	}
	return ""
}

func truthy(v interface{}) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case bool:
		return x
	case float64:
		return x != 0
	}
	return true
}
