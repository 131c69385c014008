package device

// mergeMaps merges src into dst recursively and returns dst.
//
// Object values merge key-by-key; everything else overwrites. Fields
// present only in dst survive, so a poll that omits a previously-seen
// field does not erase it. A nil dst allocates.
func mergeMaps(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any, len(src))
	}
	for k, v := range src {
		if srcObj, ok := v.(map[string]any); ok {
			if dstObj, ok := dst[k].(map[string]any); ok {
				dst[k] = mergeMaps(dstObj, srcObj)
				continue
			}
		}
		dst[k] = v
	}
	return dst
}

// copyMap returns a deep copy of a payload map. Nested objects and
// arrays are cloned; scalars are shared (they are immutable).
func copyMap(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = copyValue(v)
	}
	return dst
}

func copyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return copyMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = copyValue(item)
		}
		return out
	}
	return v
}
