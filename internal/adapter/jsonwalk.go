package adapter

// 嵌套 map 取值辅助。上游同一字段在不同形态间 camelCase/snake_case 混用，
// 所有 getter 都接受多个候选键，逐个尝试取首个命中

func getMap(m map[string]interface{}, keys ...string) map[string]interface{} {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if sub, ok := v.(map[string]interface{}); ok {
				return sub
			}
		}
	}
	return nil
}

func getSlice(m map[string]interface{}, keys ...string) []interface{} {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if s, ok := v.([]interface{}); ok {
				return s
			}
		}
	}
	return nil
}

func getString(m map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

func getNumber(m map[string]interface{}, keys ...string) (int64, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			switch n := v.(type) {
			case float64:
				return int64(n), true
			case int64:
				return n, true
			}
		}
	}
	return 0, false
}

func getValue(m map[string]interface{}, keys ...string) interface{} {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func asMap(v interface{}) map[string]interface{} {
	m, _ := v.(map[string]interface{})
	return m
}
