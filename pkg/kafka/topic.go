package kafka

import "fmt"

// TopicPrefix namespaces every storefront topic.
const TopicPrefix = "cupidcrochy"

// Topic returns the topic name for a domain action, e.g. "cupidcrochy.cart.updated".
func Topic(domain, action string) string {
	return fmt.Sprintf("%s.%s.%s", TopicPrefix, domain, action)
}
