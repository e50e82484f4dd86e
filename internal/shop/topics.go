package shop

import "strconv"

const TopicBillSettled = "bill.settled"

// Partition key = bill id so every event of one bill keeps its order.
func PartitionKey(billID int64) []byte { return []byte(strconv.FormatInt(billID, 10)) }
