package errCode

type Code int

const (
	OK               Code = iota
	INVALID_VALUE         // 参数非法
	EMPTY_VALUE           // 输入为空
	SHAPE_MISMATCH        // 矩阵/向量维度不匹配, 含分组为空的退化划分
	DECOMPOSE_FAILED      // 矩阵分解失败(SVD 不收敛)
	IO_FAILED             // 文件读写失败
)

func (c Code) String() string {
	switch c {
	case OK:
		return "OK"
	case INVALID_VALUE:
		return "INVALID_VALUE"
	case EMPTY_VALUE:
		return "EMPTY_VALUE"
	case SHAPE_MISMATCH:
		return "SHAPE_MISMATCH"
	case DECOMPOSE_FAILED:
		return "DECOMPOSE_FAILED"
	case IO_FAILED:
		return "IO_FAILED"
	default:
		return "UNKNOWN"
	}
}
