package discuss

// DirectReplyCount counts the immediate children of node.
func DirectReplyCount(node ThreadedNode) int {
	return len(node.Children())
}

// TotalReplyCount counts every descendant of node, excluding node itself.
func TotalReplyCount(node ThreadedNode) int {
	total := 0
	stack := append([]*Reply(nil), node.Children()...)

	for len(stack) > 0 {
		reply := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		total++

		stack = append(stack, reply.Children()...)
	}

	return total
}

// TotalCommentCount counts each comment plus all of its replies.
func TotalCommentCount(comments []*Comment) int {
	total := 0

	for _, comment := range comments {
		total += 1 + TotalReplyCount(comment)
	}

	return total
}
