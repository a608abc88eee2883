package ast

// Visitor dispatches over every concrete node kind. Checker, codegen,
// and the macro expander each implement a subset meaningfully and
// no-op the rest, the same way the teacher's analyzer/codegen visitors
// do over internal/ast's Visitor.
type Visitor interface {
	VisitModule(*Module)

	VisitFunction(*Function)
	VisitExternFunction(*ExternFunction)
	VisitStruct(*Struct)
	VisitEnum(*Enum)
	VisitUnion(*Union)
	VisitTrait(*Trait)
	VisitTraitAlias(*TraitAlias)
	VisitImpl(*Impl)
	VisitTypeDef(*TypeDef)
	VisitConst(*Const)
	VisitUse(*Use)
	VisitMacro(*Macro)
	VisitModuleDecl(*ModuleDecl)

	VisitBlockStatement(*BlockStatement)
	VisitExpressionStatement(*ExpressionStatement)
	VisitLetStatement(*LetStatement)
	VisitAssignStatement(*AssignStatement)
	VisitReturnStatement(*ReturnStatement)
	VisitWhileStatement(*WhileStatement)
	VisitLoopStatement(*LoopStatement)
	VisitForStatement(*ForStatement)
	VisitBreakStatement(*BreakStatement)
	VisitContinueStatement(*ContinueStatement)

	VisitIdentifier(*Identifier)
	VisitIntLiteral(*IntLiteral)
	VisitFloatLiteral(*FloatLiteral)
	VisitBoolLiteral(*BoolLiteral)
	VisitStringLiteral(*StringLiteral)
	VisitCharLiteral(*CharLiteral)
	VisitUnitLiteral(*UnitLiteral)
	VisitBinaryExpression(*BinaryExpression)
	VisitUnaryExpression(*UnaryExpression)
	VisitRangeExpression(*RangeExpression)
	VisitIfExpression(*IfExpression)
	VisitCallExpression(*CallExpression)
	VisitFieldAccessExpression(*FieldAccessExpression)
	VisitMethodCallExpression(*MethodCallExpression)
	VisitIndexExpression(*IndexExpression)
	VisitTupleExpression(*TupleExpression)
	VisitArrayExpression(*ArrayExpression)
	VisitStructLiteralExpression(*StructLiteralExpression)
	VisitEnumLiteralExpression(*EnumLiteralExpression)
	VisitMatchExpression(*MatchExpression)
	VisitClosureExpression(*ClosureExpression)
	VisitAwaitExpression(*AwaitExpression)
	VisitSpawnExpression(*SpawnExpression)
	VisitYieldExpression(*YieldExpression)
	VisitTryExpression(*TryExpression)

	VisitWildcardPattern(*WildcardPattern)
	VisitBindingPattern(*BindingPattern)
	VisitLiteralPattern(*LiteralPattern)
	VisitRangePattern(*RangePattern)
	VisitTuplePattern(*TuplePattern)
	VisitStructPattern(*StructPattern)
	VisitEnumVariantPattern(*EnumVariantPattern)
	VisitAliasPattern(*AliasPattern)
}

// BaseVisitor is an embeddable no-op Visitor; concrete visitors embed
// it and override only the methods they care about, mirroring how the
// teacher's codegen/analyzer visitors only implement a subset of
// handlers relevant to their phase.
type BaseVisitor struct{}

func (BaseVisitor) VisitModule(*Module)                                   {}
func (BaseVisitor) VisitFunction(*Function)                               {}
func (BaseVisitor) VisitExternFunction(*ExternFunction)                   {}
func (BaseVisitor) VisitStruct(*Struct)                                   {}
func (BaseVisitor) VisitEnum(*Enum)                                       {}
func (BaseVisitor) VisitUnion(*Union)                                     {}
func (BaseVisitor) VisitTrait(*Trait)                                     {}
func (BaseVisitor) VisitTraitAlias(*TraitAlias)                           {}
func (BaseVisitor) VisitImpl(*Impl)                                       {}
func (BaseVisitor) VisitTypeDef(*TypeDef)                                 {}
func (BaseVisitor) VisitConst(*Const)                                     {}
func (BaseVisitor) VisitUse(*Use)                                         {}
func (BaseVisitor) VisitMacro(*Macro)                                     {}
func (BaseVisitor) VisitModuleDecl(*ModuleDecl)                           {}
func (BaseVisitor) VisitBlockStatement(*BlockStatement)                   {}
func (BaseVisitor) VisitExpressionStatement(*ExpressionStatement)         {}
func (BaseVisitor) VisitLetStatement(*LetStatement)                       {}
func (BaseVisitor) VisitAssignStatement(*AssignStatement)                 {}
func (BaseVisitor) VisitReturnStatement(*ReturnStatement)                 {}
func (BaseVisitor) VisitWhileStatement(*WhileStatement)                   {}
func (BaseVisitor) VisitLoopStatement(*LoopStatement)                     {}
func (BaseVisitor) VisitForStatement(*ForStatement)                       {}
func (BaseVisitor) VisitBreakStatement(*BreakStatement)                   {}
func (BaseVisitor) VisitContinueStatement(*ContinueStatement)             {}
func (BaseVisitor) VisitIdentifier(*Identifier)                           {}
func (BaseVisitor) VisitIntLiteral(*IntLiteral)                           {}
func (BaseVisitor) VisitFloatLiteral(*FloatLiteral)                       {}
func (BaseVisitor) VisitBoolLiteral(*BoolLiteral)                         {}
func (BaseVisitor) VisitStringLiteral(*StringLiteral)                     {}
func (BaseVisitor) VisitCharLiteral(*CharLiteral)                         {}
func (BaseVisitor) VisitUnitLiteral(*UnitLiteral)                         {}
func (BaseVisitor) VisitBinaryExpression(*BinaryExpression)               {}
func (BaseVisitor) VisitUnaryExpression(*UnaryExpression)                 {}
func (BaseVisitor) VisitRangeExpression(*RangeExpression)                 {}
func (BaseVisitor) VisitIfExpression(*IfExpression)                       {}
func (BaseVisitor) VisitCallExpression(*CallExpression)                   {}
func (BaseVisitor) VisitFieldAccessExpression(*FieldAccessExpression)     {}
func (BaseVisitor) VisitMethodCallExpression(*MethodCallExpression)       {}
func (BaseVisitor) VisitIndexExpression(*IndexExpression)                 {}
func (BaseVisitor) VisitTupleExpression(*TupleExpression)                 {}
func (BaseVisitor) VisitArrayExpression(*ArrayExpression)                 {}
func (BaseVisitor) VisitStructLiteralExpression(*StructLiteralExpression) {}
func (BaseVisitor) VisitEnumLiteralExpression(*EnumLiteralExpression)     {}
func (BaseVisitor) VisitMatchExpression(*MatchExpression)                 {}
func (BaseVisitor) VisitClosureExpression(*ClosureExpression)             {}
func (BaseVisitor) VisitAwaitExpression(*AwaitExpression)                 {}
func (BaseVisitor) VisitSpawnExpression(*SpawnExpression)                 {}
func (BaseVisitor) VisitYieldExpression(*YieldExpression)                 {}
func (BaseVisitor) VisitTryExpression(*TryExpression)                     {}
func (BaseVisitor) VisitWildcardPattern(*WildcardPattern)                 {}
func (BaseVisitor) VisitBindingPattern(*BindingPattern)                   {}
func (BaseVisitor) VisitLiteralPattern(*LiteralPattern)                   {}
func (BaseVisitor) VisitRangePattern(*RangePattern)                       {}
func (BaseVisitor) VisitTuplePattern(*TuplePattern)                       {}
func (BaseVisitor) VisitStructPattern(*StructPattern)                     {}
func (BaseVisitor) VisitEnumVariantPattern(*EnumVariantPattern)           {}
func (BaseVisitor) VisitAliasPattern(*AliasPattern)                       {}
