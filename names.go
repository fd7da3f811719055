package modelbind

import "strconv"

// CreatePropertyModelName 拼接属性名: "" + "Key" -> "Key", "pair" + "Key" -> "pair.Key"
func CreatePropertyModelName(prefix, propertyName string) string {
	if prefix == "" {
		return propertyName
	}
	if propertyName == "" {
		return prefix
	}
	return prefix + "." + propertyName
}

// CreateIndexModelName 拼接索引名: "items" + 0 -> "items[0]"
func CreateIndexModelName(prefix string, index int) string {
	return prefix + "[" + strconv.Itoa(index) + "]"
}
